package cli

import "testing"

func TestRunRoundTripsFlagAndName(t *testing.T) {
	i := Invocation{Command: CommandRun, Name: "build", Flag: "main", ConfigPath: "pipelight.config.yaml"}
	got := i.String()
	want := `run "build" --flag main --config pipelight.config.yaml`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVerbosityAndQuietRender(t *testing.T) {
	i := Invocation{Command: CommandTrigger, Verbose: 3, Quiet: true, Attach: true}
	got := i.String()
	want := "trigger -vvv -q --attach"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLogsRmWithNameAndJSON(t *testing.T) {
	i := Invocation{Command: CommandLogs, Rm: true, Name: "build", JSON: true}
	got := i.String()
	want := "logs rm build --json"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRawPassthroughAppendsAfterDoubleDash(t *testing.T) {
	i := Invocation{Command: CommandWatch, Raw: []string{"ignored", "args"}}
	got := i.String()
	want := "watch -- ignored args"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
