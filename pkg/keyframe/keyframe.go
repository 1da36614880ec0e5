// Package keyframe interpolates values over time-sorted keyframe tracks.
package keyframe

import (
	"errors"

	"github.com/Faultbox/trifold/pkg/math"
)

// ErrEmptyTrack is returned when interpolating a track with no keys.
var ErrEmptyTrack = errors.New("keyframe: cannot interpolate an empty track")

// Key is a single (time, value) sample.
type Key[T any] struct {
	Time  float64
	Value T
}

// Track is a list of keys with non-decreasing times.
type Track[T any] []Key[T]

// Interpolator blends two values by factor t in [0, 1].
type Interpolator[T any] func(a, b T, t float64) T

// Linear interpolates positions and scales.
var Linear Interpolator[math.Vec3] = math.LerpVec3

// Spherical interpolates rotations.
var Spherical Interpolator[math.Quat] = math.SlerpQuat

// Interpolate samples track at time. Times outside the track clamp to the
// first or last value.
func Interpolate[T any](time float64, track Track[T], interp Interpolator[T]) (T, error) {
	var zero T
	if len(track) == 0 {
		return zero, ErrEmptyTrack
	}
	if len(track) == 1 || time < track[0].Time {
		return track[0].Value, nil
	}

	last := track[len(track)-1]
	if time >= last.Time {
		return last.Value, nil
	}

	i := search(time, track)
	first, second := track[i], track[i+1]
	return interp(first.Value, second.Value, inverseLerp(first.Time, second.Time, time)), nil
}

// search returns the index i with track[i].Time <= time < track[i+1].Time,
// or the index of an exact time match.
func search[T any](time float64, track Track[T]) int {
	low, high := 0, len(track)-1
	for low <= high {
		mid := (low + high) / 2
		switch t := track[mid].Time; {
		case time < t:
			high = mid - 1
		case time > t:
			low = mid + 1
		default:
			return mid
		}
	}
	return low - 1
}

func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}
