package cache

import (
	"time"
)

// refreshHour は日次取り込みが終わっている時刻（日本時間）です。
const refreshHour = 8

// tokyo はtzdataが無い環境でもJSTを返します。
var tokyo = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}()

// TimeUntilNext8AM は次の午前8時（日本時間）までの期間を返します。
func TimeUntilNext8AM() time.Duration {
	return TimeUntilNext(time.Now(), refreshHour, tokyo)
}

// TimeUntilNext は now から次の loc における hour:00 までの期間を返します。
// ちょうど hour:00 のときは24時間後を返します。
func TimeUntilNext(now time.Time, hour int, loc *time.Location) time.Duration {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)

	// 今日の該当時刻を過ぎていれば明日
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
