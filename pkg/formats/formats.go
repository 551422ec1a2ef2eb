// Package formats reads and writes mesh files: the HEMS binary snapshot
// of a half-edge surface and Wavefront OBJ polygon soups.
package formats
