// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgs

type Point struct {
	X, Y, Z float64
}

func (Point) MessageType() string { return "geometry_msgs/msg/Point" }

type Quaternion struct {
	X, Y, Z, W float64
}

func (Quaternion) MessageType() string { return "geometry_msgs/msg/Quaternion" }

// Identity returns the zero rotation.
func Identity() Quaternion { return Quaternion{W: 1} }

type Vector3 struct {
	X, Y, Z float64
}

func (Vector3) MessageType() string { return "geometry_msgs/msg/Vector3" }

type Pose struct {
	Position    Point
	Orientation Quaternion
}

func (Pose) MessageType() string { return "geometry_msgs/msg/Pose" }

type Twist struct {
	Linear  Vector3
	Angular Vector3
}

func (Twist) MessageType() string { return "geometry_msgs/msg/Twist" }
