package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"slidecast/internal/api"
)

func buildDeckStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildDeckListRows(decks []api.Deck) [][]string {
	if len(decks) == 0 {
		return nil
	}
	sorted := make([]api.Deck, len(decks))
	copy(sorted, decks)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseDeckTime(sorted[i].CreatedAt)
		tj := parseDeckTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, d := range sorted {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			title = "Untitled"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", d.ID),
			truncate(title, 40),
			formatStatusLabel(d.Status),
			formatStatusLabel(d.Step),
			fmt.Sprintf("%d", d.TotalSlides),
			formatDisplayTime(d.CreatedAt),
		})
	}
	return rows
}

func buildSlideRows(slides []api.Slide) [][]string {
	rows := make([][]string, 0, len(slides))
	for _, slide := range slides {
		rows = append(rows, []string{
			fmt.Sprintf("%d", slide.Position+1),
			truncate(strings.TrimSpace(slide.Title), 40),
			truncate(strings.TrimSpace(slide.Content), 60),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseDeckTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
