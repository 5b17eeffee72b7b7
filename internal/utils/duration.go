package utils

import "strconv"

// FormatDuration renders whole seconds in Chinese using integer division at
// minute, hour and day thresholds.
//
// Example:
//
//	utils.FormatDuration(30)    // "30秒"
//	utils.FormatDuration(125)   // "2分鐘"
//	utils.FormatDuration(90000) // "1天"
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return strconv.FormatInt(seconds, 10) + "秒"
	case seconds < 3600:
		return strconv.FormatInt(seconds/60, 10) + "分鐘"
	case seconds < 86400:
		return strconv.FormatInt(seconds/3600, 10) + "小時"
	default:
		return strconv.FormatInt(seconds/86400, 10) + "天"
	}
}
