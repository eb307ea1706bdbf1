//go:build activitytrackerdebug

package assert

const enabled = true

func assertThat(cond bool, msg string) {
	if !cond {
		panic("activitytracker: assertion failed: " + msg)
	}
}
