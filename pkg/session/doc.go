/*
Package session serializes access to canvas workspaces.

A Manager keeps one logical writer per workspace: it holds a reference-counted
in-process mutex and, when configured, a distributed lock, then loads the
workspace, applies edits through a graph.Store and saves the result.
*/
package session
