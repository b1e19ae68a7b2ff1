package models

import "time"

// HongKong is the zone every operator publishes timetables in.
var HongKong = time.FixedZone("HKT", 8*60*60)

// ServerTime is the entry returned by the current-time endpoint.
type ServerTime struct {
	Time         int64  `json:"time"`
	ReadableTime string `json:"readableTime"`
	ServiceDate  string `json:"serviceDate"`
}

// NewServerTime describes t in epoch milliseconds and in Hong Kong local time.
func NewServerTime(t time.Time) ServerTime {
	local := t.In(HongKong)
	return ServerTime{
		Time:         t.UnixMilli(),
		ReadableTime: local.Format(time.RFC3339),
		ServiceDate:  local.Format("20060102"),
	}
}
