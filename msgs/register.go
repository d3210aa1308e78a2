// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgs

import (
	"fmt"

	"github.com/istvan-fodor/r2a/r2a"
)

// Register adds every message type of this package to r.
func Register(r *r2a.Registry) error {
	for _, reg := range []func(*r2a.Registry) (r2a.ArrowSupport, error){
		r2a.Register[Time],
		r2a.Register[Duration],
		r2a.Register[Header],
		r2a.Register[Point],
		r2a.Register[Quaternion],
		r2a.Register[Vector3],
		r2a.Register[Pose],
		r2a.Register[Twist],
		r2a.Register[LaserScan],
		r2a.Register[PointField],
		r2a.Register[PointCloud2],
		r2a.Register[Imu],
		r2a.Register[NavSatStatus],
		r2a.Register[NavSatFix],
	} {
		if _, err := reg(r); err != nil {
			return fmt.Errorf("msgs: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding every message type of this
// package.
func NewRegistry() *r2a.Registry {
	r := r2a.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
