package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// cleanFixture exchanges two i32 values through pointers. Every root
// typechecks.
const cleanFixture = `methods: swap: {
	inputs: ["*i32", "*i32"]
	locals: [{name: "tmp", type: "i32"}]
	body: [
		{stloc: {local: 0, value: {ldind: {addr: {ldarg: 0}, type: "i32"}}}},
		{stind: {addr: {ldarg: 0}, value: {ldind: {addr: {ldarg: 1}, type: "i32"}}, type: "i32"}},
		{stind: {addr: {ldarg: 1}, value: {ldloc: 0}, type: "i32"}},
		{void_ret: {}},
	]
}
`

// failingFixture has one ill-typed root in each of two methods:
// alpha[0] and beta[0].
const failingFixture = `methods: alpha: {
	inputs: ["i32"]
	locals: [{name: "acc", type: "i64"}]
	body: [
		{stloc: {local: 0, value: {ldarg: 0}}},
		{nop: {}},
		{void_ret: {}},
	]
}
methods: beta: {
	body: [
		{pop: {ldarg: 3}},
		{void_ret: {}},
	]
}
`

// fixedFixture is failingFixture with both failing roots corrected.
const fixedFixture = `methods: alpha: {
	inputs: ["i32"]
	locals: [{name: "acc", type: "i32"}]
	body: [
		{stloc: {local: 0, value: {ldarg: 0}}},
		{nop: {}},
		{void_ret: {}},
	]
}
methods: beta: {
	body: [
		{pop: {i32: 3}},
		{void_ret: {}},
	]
}
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
