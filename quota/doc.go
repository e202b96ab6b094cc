// Package quota bounds model invocation volume per fixed time window.
//
// Windows (hourly, daily) are independent; an invocation is allowed only
// when every configured window is open, and a window reopens solely by
// time-based rollover. Counting is atomic across concurrent callers.
package quota
