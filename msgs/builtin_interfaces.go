// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgs

import "time"

// Time is builtin_interfaces/msg/Time.
type Time struct {
	Sec     int32
	Nanosec uint32
}

func (Time) MessageType() string { return "builtin_interfaces/msg/Time" }

// FromTime converts t to a ROS timestamp.
func FromTime(t time.Time) Time {
	return Time{Sec: int32(t.Unix()), Nanosec: uint32(t.Nanosecond())}
}

// Time converts the timestamp to a time.Time in UTC.
func (t Time) Time() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nanosec)).UTC()
}

// Duration is builtin_interfaces/msg/Duration.
type Duration struct {
	Sec     int32
	Nanosec uint32
}

func (Duration) MessageType() string { return "builtin_interfaces/msg/Duration" }

// FromDuration converts d to a ROS duration. Negative durations borrow from
// Sec so that Nanosec stays in [0, 1e9).
func FromDuration(d time.Duration) Duration {
	sec := d / time.Second
	nsec := d % time.Second
	if nsec < 0 {
		sec--
		nsec += time.Second
	}
	return Duration{Sec: int32(sec), Nanosec: uint32(nsec)}
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d.Sec)*time.Second + time.Duration(d.Nanosec)
}
