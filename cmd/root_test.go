package cmd

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestRootVersionFlag(t *testing.T) {
	// initConfig runs on Execute and touches global viper state.
	t.Cleanup(viper.Reset)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	prev := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = prev })

	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	execErr := rootCmd.Execute()

	w.Close()
	out, readErr := io.ReadAll(r)
	os.Stdout = prev

	if execErr != nil {
		t.Fatalf("--version must be accepted by the root command, got: %v", execErr)
	}
	if readErr != nil {
		t.Fatalf("failed to read captured output: %v", readErr)
	}

	if !strings.Contains(string(out), "fetcharrctl version "+Version) {
		t.Errorf("expected a version line, got %q", string(out))
	}
	if strings.Contains(string(out), "Usage:") {
		t.Error("--version must not fall through to help output")
	}

	if rootCmd.Flags().ShorthandLookup("v") == nil {
		t.Error("expected -v as the version shorthand")
	}
}
