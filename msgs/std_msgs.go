// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgs

// Header is std_msgs/msg/Header.
type Header struct {
	Stamp   Time
	FrameID string `r2a:"frame_id"`
}

func (Header) MessageType() string { return "std_msgs/msg/Header" }
