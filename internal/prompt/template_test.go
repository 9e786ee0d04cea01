package prompt

import "testing"

func TestRenderDefaults(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   any
		want     string
	}{
		{
			name:     "missing value uses default",
			template: `Hello {{name|default:"Guest"}}!`,
			params:   map[string]any{},
			want:     "Hello Guest!",
		},
		{
			name:     "present value wins",
			template: `Hello {{name|default:"Guest"}}!`,
			params:   map[string]any{"name": "Ada"},
			want:     "Hello Ada!",
		},
		{
			name:     "whitespace-only value falls back",
			template: `Hello {{name|default:"Guest"}}!`,
			params:   map[string]any{"name": "  "},
			want:     "Hello Guest!",
		},
		{
			name:     "null value falls back",
			template: `Hello {{name|default:"Guest"}}!`,
			params:   map[string]any{"name": nil},
			want:     "Hello Guest!",
		},
		{
			name:     "no default renders empty",
			template: `[{{name}}]`,
			params:   map[string]any{},
			want:     "[]",
		},
		{
			name:     "single-quoted default",
			template: `{{city|default:'Nowhere'}}`,
			params:   map[string]any{},
			want:     "Nowhere",
		},
		{
			name:     "bare default",
			template: `{{city|default:Nowhere}}`,
			params:   map[string]any{},
			want:     "Nowhere",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.template).Render(tt.params)
			if got != tt.want {
				t.Fatalf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderNestedPaths(t *testing.T) {
	tpl := Parse(`{{user.profile.city}}`)

	got := tpl.Render(map[string]any{
		"user": map[string]any{"profile": map[string]any{"city": "Boston"}},
	})
	if got != "Boston" {
		t.Fatalf("Render() = %q, want %q", got, "Boston")
	}

	got = tpl.Render(map[string]any{"user": map[string]any{}})
	if got != "" {
		t.Fatalf("Render() with missing intermediate = %q, want empty", got)
	}

	// An intermediate key holding a non-object resolves to nothing.
	got = tpl.Render(map[string]any{"user": "flat"})
	if got != "" {
		t.Fatalf("Render() through non-object = %q, want empty", got)
	}
}

func TestRenderTokenWhitespace(t *testing.T) {
	got := Parse(`{{  name  |  default:"Guest"  }}`).Render(map[string]any{"name": "Ada"})
	if got != "Ada" {
		t.Fatalf("Render() = %q, want %q", got, "Ada")
	}
}

func TestRenderMalformedTokens(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"empty token body", `a{{}}b`, "ab"},
		{"only modifiers", `a{{|default:"x"}}b`, "ab"},
		{"unclosed token kept literal", `a{{name`, "a{{name"},
		{"unknown modifier ignored", `{{name|upper}}`, "Ada"},
	}
	params := map[string]any{"name": "Ada"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.template).Render(params); got != tt.want {
				t.Fatalf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderFlattensStructures(t *testing.T) {
	params := map[string]any{
		"tags": []any{"go", "chat", "webhooks"},
		"user": map[string]any{"name": "Ada", "plan": "pro"},
		"mix":  []any{map[string]any{"a": int64(1)}, "x"},
	}

	if got := Parse(`{{tags}}`).Render(params); got != "go, chat, webhooks" {
		t.Fatalf("array flatten = %q", got)
	}
	if got := Parse(`{{user}}`).Render(params); got != "name: Ada, plan: pro" {
		t.Fatalf("object flatten = %q", got)
	}
	if got := Parse(`{{mix}}`).Render(params); got != "a: 1, x" {
		t.Fatalf("nested flatten = %q", got)
	}
}

func TestRenderNumbersAndBools(t *testing.T) {
	params := map[string]any{"count": int64(3), "ratio": 2.5, "ok": true}
	if got := Parse(`{{count}}/{{ratio}}/{{ok}}`).Render(params); got != "3/2.5/true" {
		t.Fatalf("Render() = %q", got)
	}
}
