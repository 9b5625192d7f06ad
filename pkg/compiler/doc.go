// Package compiler turns a canvas dependency graph into the ordered list of
// execution steps submitted to the workflow executor.
//
// The default mode levels nodes by bounded edge relaxation and accepts any
// input, cycles included. Strict mode uses Kahn's algorithm and reports
// cycles as errors instead.
package compiler
