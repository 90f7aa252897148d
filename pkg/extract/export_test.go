package extract

import "time"

func SetNow(fn func() time.Time) (restore func()) {
	prev := now
	now = fn
	return func() { now = prev }
}
