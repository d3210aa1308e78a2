// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const laserScanMsg = `# Single scan from a planar laser range-finder
std_msgs/Header header # timestamp in the header is the acquisition time

float32 angle_min        # start angle of the scan [rad]
float32 angle_max
float32 angle_increment
float32 time_increment
float32 scan_time
float32 range_min
float32 range_max

float32[] ranges
float32[] intensities
`

func TestParseLaserScan(t *testing.T) {
	def, err := Parse("sensor_msgs/msg/LaserScan", laserScanMsg)
	require.NoError(t, err)

	assert.Equal(t, "sensor_msgs/msg/LaserScan", def.FullName())
	require.Len(t, def.Fields, 10)
	assert.Equal(t, "header", def.Fields[0].Name)
	assert.Equal(t, "std_msgs/msg/Header", def.Fields[0].Type.FullName())
	assert.Equal(t, "angle_min", def.Fields[1].Name)
	assert.Equal(t, "float32", def.Fields[1].Type.Name)
	assert.Equal(t, UnboundedArray, def.Fields[8].Type.Array)
	assert.Equal(t, "float32[]", def.Fields[9].Type.String())
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		line string
		want Type
	}{
		{"int32 a", Type{Name: "int32"}},
		{"uint8[16] a", Type{Name: "uint8", Array: FixedArray, Size: 16}},
		{"float64[<=3] a", Type{Name: "float64", Array: BoundedArray, Size: 3}},
		{"string<=8 a", Type{Name: "string", StringBound: 8}},
		{"string<=8[<=2] a", Type{Name: "string", StringBound: 8, Array: BoundedArray, Size: 2}},
		{"geometry_msgs/Point a", Type{Package: "geometry_msgs", Name: "Point"}},
		{"geometry_msgs/msg/Point[] a", Type{Package: "geometry_msgs", Name: "Point", Array: UnboundedArray}},
		{"Header a", Type{Package: "std_msgs", Name: "Header"}},
		{"time a", Type{Package: "builtin_interfaces", Name: "Time"}},
		{"Other a", Type{Package: "my_pkg", Name: "Other"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			def, err := Parse("my_pkg/msg/T", tt.line)
			require.NoError(t, err)
			require.Len(t, def.Fields, 1)
			assert.Equal(t, tt.want, def.Fields[0].Type)
		})
	}
}

func TestParseConstantsAndDefaults(t *testing.T) {
	src := `
int8 STATUS_NO_FIX = -1
int8 STATUS_FIX=0
string GREETING="hello # not a comment"
int8 status 0
string name "a=b"
`
	def, err := Parse("sensor_msgs/NavSatStatus", src)
	require.NoError(t, err)

	require.Len(t, def.Constants, 3)
	assert.Equal(t, Constant{Name: "STATUS_NO_FIX", Type: Type{Name: "int8"}, Value: "-1"}, def.Constants[0])
	assert.Equal(t, "0", def.Constants[1].Value)
	assert.Equal(t, `"hello # not a comment"`, def.Constants[2].Value)

	require.Len(t, def.Fields, 2)
	assert.True(t, def.Fields[0].HasDefault)
	assert.Equal(t, "0", def.Fields[0].Default)
	assert.Equal(t, `"a=b"`, def.Fields[1].Default)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"missing name":      "int32",
		"duplicate":         "int32 a\nint32 a",
		"bad array":         "int32[x] a",
		"zero array":        "int32[0] a",
		"bounded int":       "int32<=3 a",
		"bad field name":    "int32 1abc",
		"array constant":    "int32[] FOO=1",
		"unterminated":      "int32[3 a",
		"lowercase typeref": "point a",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("p/msg/T", src)
			require.Error(t, err)
		})
	}

	var perr *ParseError
	_, err := Parse("p/msg/T", "int32 a\nint32 a")
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
}

func TestParseBundle(t *testing.T) {
	src := `std_msgs/Header header
geometry_msgs/Point position
================================================================================
MSG: std_msgs/Header
builtin_interfaces/Time stamp
string frame_id
================================================================================
MSG: builtin_interfaces/Time
int32 sec
uint32 nanosec
================================================================================
MSG: geometry_msgs/Point
float64 x
float64 y
float64 z
`
	defs, err := ParseBundle("my_msgs/msg/Stamped", src)
	require.NoError(t, err)
	require.Len(t, defs, 4)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.FullName()
	}
	assert.Equal(t, []string{
		"my_msgs/msg/Stamped",
		"std_msgs/msg/Header",
		"builtin_interfaces/msg/Time",
		"geometry_msgs/msg/Point",
	}, names)
	assert.Len(t, defs[3].Fields, 3)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	msgDir := filepath.Join(dir, "demo_msgs", "msg")
	require.NoError(t, os.MkdirAll(msgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(msgDir, "Sample.msg"), []byte("int32 value\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(msgDir, "README.md"), []byte("ignored"), 0o644))

	defs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "demo_msgs/msg/Sample", defs[0].FullName())
}
