package main

import (
	"errors"
	"testing"

	"cfb-ratings/server/rating"
)

func TestParseArgs(t *testing.T) {
	cases := []struct {
		name  string
		args  []string
		cmd   command
		decay float64 // -1 for unset
	}{
		{"serve by default", nil, cmdServe, -1},
		{"migrate", []string{"--migrate"}, cmdMigrate, -1},
		{"glicko", []string{"--glicko"}, cmdGlicko, -1},
		{"elo default decay", []string{"--elo"}, cmdElo, -1},
		{"elo with equals", []string{"--elo", "--decay=0.3"}, cmdElo, 0.3},
		{"elo with separate value", []string{"--decay", "1", "--elo"}, cmdElo, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := parseArgs(tc.args)
			if err != nil {
				t.Fatalf("parseArgs: %v", err)
			}
			if o.cmd != tc.cmd {
				t.Fatalf("cmd: got %v want %v", o.cmd, tc.cmd)
			}
			switch {
			case tc.decay < 0 && o.decay != nil:
				t.Fatalf("decay should be unset, got %v", *o.decay)
			case tc.decay >= 0 && (o.decay == nil || *o.decay != tc.decay):
				t.Fatalf("decay: got %v want %v", o.decay, tc.decay)
			}
		})
	}
}

func TestParseArgsConfigPath(t *testing.T) {
	o, err := parseArgs([]string{"--config=cfb.yaml", "--glicko"})
	if err != nil || o.configPath != "cfb.yaml" {
		t.Fatalf("got %+v, %v", o, err)
	}
}

func TestParseArgsErrors(t *testing.T) {
	if _, err := parseArgs([]string{"--elo", "--decay=1.5"}); !errors.Is(err, rating.ErrInvalidDecay) {
		t.Fatalf("expected ErrInvalidDecay, got %v", err)
	}
	for _, args := range [][]string{
		{"--elo", "--decay=abc"},
		{"--elo", "--decay"},
		{"--glicko", "--decay=0.5"},
		{"--elo", "--glicko"},
		{"--bogus"},
	} {
		if _, err := parseArgs(args); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestAsBool(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		if !asBool(s) {
			t.Fatalf("%q should be true", s)
		}
	}
	for _, s := range []string{"", "0", "false", "nah"} {
		if asBool(s) {
			t.Fatalf("%q should be false", s)
		}
	}
}
