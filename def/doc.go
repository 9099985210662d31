// Package def decodes Heroes of Might and Magic III .def animation
// resources.
//
// A DEF holds a 256-color palette and a list of animation groups. Each
// group names its frames and points at their headers; every frame stores
// only its non-background rectangle (Width x Height at X, Y) of a larger
// logical canvas (FullWidth x FullHeight), compressed with one of four
// schemes.
//
// Decode is a pure function of its input, so independent resources may be
// decoded in parallel.
package def
