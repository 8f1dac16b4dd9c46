package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"todolist/internal/handlers"
	"todolist/internal/models"
)

func TestParseTemplates_RendersIndex(t *testing.T) {
	tmpl, err := parseTemplates()
	if err != nil {
		t.Fatalf("parseTemplates failed: %v", err)
	}

	now := time.Now()
	data := handlers.HomeData{
		Title:       "Todo List",
		ShowHistory: true,
		Tasks: []models.Task{
			{ID: 2, Content: "<b>escaped</b>", CreatedAt: now},
			{ID: 1, Content: "legacy row"},
		},
		Completed: []models.CompletedTask{{ID: 1, Content: "buy milk", CompletedAt: now}},
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		t.Fatalf("failed to render index.html: %v", err)
	}

	body := buf.String()
	if strings.Contains(body, "0001-01-01") {
		t.Error("expected a missing date to render blank")
	}

	for _, want := range []string{`href="/complete/2"`, `href="/delete/2"`, "buy milk", "&lt;b&gt;escaped&lt;/b&gt;", "No deleted tasks."} {
		if !strings.Contains(body, want) {
			t.Errorf("expected rendered page to contain %q", want)
		}
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("expected subcommand %q, got %v (err %v)", name, cmd, err)
		}
	}

	for _, flag := range []string{"port", "driver", "db-path", "database-url", "policy", "debug"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected flag --%s", flag)
		}
	}
}
