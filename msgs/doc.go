// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package msgs provides Go types for commonly recorded ROS 2 messages.
//
// Each type implements r2a.Message and mirrors its .msg definition field
// for field, so schemas reflected from these types match schemas built from
// the definitions. Call Register to add all of them to a registry.
package msgs
