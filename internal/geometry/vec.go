// Package geometry holds the coordinate value types carried inside wire
// messages: 2D chunk coordinates, 3D positions, and orientation quaternions.
package geometry

// Scalar is the set of numeric types a coordinate component may use.
type Scalar interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Vec2 is a 2D coordinate, used for chunk columns (x, z).
type Vec2[T Scalar] struct {
	X T
	Z T
}

// Add returns the component-wise sum.
func (v Vec2[T]) Add(o Vec2[T]) Vec2[T] {
	return Vec2[T]{v.X + o.X, v.Z + o.Z}
}

// Sub returns the component-wise difference.
func (v Vec2[T]) Sub(o Vec2[T]) Vec2[T] {
	return Vec2[T]{v.X - o.X, v.Z - o.Z}
}

// Scale multiplies both components by s.
func (v Vec2[T]) Scale(s T) Vec2[T] {
	return Vec2[T]{v.X * s, v.Z * s}
}

// Vec2As converts a Vec2 between component types.
func Vec2As[T, U Scalar](v Vec2[U]) Vec2[T] {
	return Vec2[T]{T(v.X), T(v.Z)}
}

// Vec3 is a 3D coordinate.
type Vec3[T Scalar] struct {
	X T
	Y T
	Z T
}

// Add returns the component-wise sum.
func (v Vec3[T]) Add(o Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns the component-wise difference.
func (v Vec3[T]) Sub(o Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale multiplies all components by s.
func (v Vec3[T]) Scale(s T) Vec3[T] {
	return Vec3[T]{v.X * s, v.Y * s, v.Z * s}
}

// Vec3As converts a Vec3 between component types.
func Vec3As[T, U Scalar](v Vec3[U]) Vec3[T] {
	return Vec3[T]{T(v.X), T(v.Y), T(v.Z)}
}

// Quaternion is an orientation as (x, y, z, w).
type Quaternion struct {
	X float32
	Y float32
	Z float32
	W float32
}
