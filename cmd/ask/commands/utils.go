// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Flag override helpers plus display formatting for history output
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// The override helpers apply a flag value over a config field only when
// the user set the flag, so config-file and env values survive defaults.

func overrideString(f *pflag.FlagSet, name string, dst *string) {
	if fl := f.Lookup(name); fl != nil && fl.Changed {
		v, _ := f.GetString(name)
		*dst = v
	}
}

func overrideInt(f *pflag.FlagSet, name string, dst *int) {
	if fl := f.Lookup(name); fl != nil && fl.Changed {
		v, _ := f.GetInt(name)
		*dst = v
	}
}

func overrideBool(f *pflag.FlagSet, name string, dst *bool) {
	if fl := f.Lookup(name); fl != nil && fl.Changed {
		v, _ := f.GetBool(name)
		*dst = v
	}
}

func overrideFloat64(f *pflag.FlagSet, name string, dst *float64) {
	if fl := f.Lookup(name); fl != nil && fl.Changed {
		v, _ := f.GetFloat64(name)
		*dst = v
	}
}
