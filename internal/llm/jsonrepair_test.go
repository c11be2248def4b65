package llm

import (
	"reflect"
	"testing"
)

func TestDecodeClean(t *testing.T) {
	var out map[string]string
	if !Decode(`{"key": "value"}`, &out) {
		t.Fatal("expected clean JSON to decode")
	}
	if out["key"] != "value" {
		t.Errorf("got %q, want %q", out["key"], "value")
	}
}

func TestDecodeFenced(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	var out map[string]string
	if !Decode(text, &out) {
		t.Fatal("expected fenced JSON to decode")
	}
	if out["key"] != "value" {
		t.Errorf("got %q, want %q", out["key"], "value")
	}
}

func TestDecodeSurroundingProse(t *testing.T) {
	text := `Here is the result you asked for:
{"items": [1, 2, 3]}
Let me know if you need anything else.`
	var out map[string][]int
	if !Decode(text, &out) {
		t.Fatal("expected embedded JSON to decode")
	}
	if !reflect.DeepEqual(out["items"], []int{1, 2, 3}) {
		t.Errorf("got %v", out["items"])
	}
}

func TestDecodeArrayBeforeObject(t *testing.T) {
	// The array opens first, so the array must win even though an
	// object brace appears inside it.
	text := `result: [{"index": 0}, {"index": 1}]`
	var out []map[string]int
	if !Decode(text, &out) {
		t.Fatal("expected array to decode")
	}
	if len(out) != 2 || out[1]["index"] != 1 {
		t.Errorf("got %v", out)
	}
}

func TestDecodeTrailingComma(t *testing.T) {
	text := `{"items": [1, 2, 3,], "name": "x",}`
	var out struct {
		Items []int  `json:"items"`
		Name  string `json:"name"`
	}
	if !Decode(text, &out) {
		t.Fatal("expected trailing commas to be repaired")
	}
	if len(out.Items) != 3 || out.Name != "x" {
		t.Errorf("got %+v", out)
	}
}

func TestDecodeLineComments(t *testing.T) {
	text := "{\n// the selected items\n\"items\": [1]\n}"
	var out map[string][]int
	if !Decode(text, &out) {
		t.Fatal("expected comments to be stripped")
	}
	if len(out["items"]) != 1 {
		t.Errorf("got %v", out)
	}
}

func TestDecodeRawNewlineInString(t *testing.T) {
	text := "{\"content\": \"line one\nline two\"}"
	var out map[string]string
	if !Decode(text, &out) {
		t.Fatal("expected raw newline inside string to be escaped")
	}
	if out["content"] != "line one\nline two" {
		t.Errorf("got %q", out["content"])
	}
}

func TestDecodeGarbageLeavesOutUntouched(t *testing.T) {
	out := map[string]string{"existing": "fallback"}
	if Decode("not json at all", &out) {
		t.Fatal("expected garbage to fail")
	}
	if out["existing"] != "fallback" {
		t.Errorf("out was modified: %v", out)
	}
}

func TestDecodeEmpty(t *testing.T) {
	var out map[string]any
	if Decode("", &out) {
		t.Fatal("expected empty input to fail")
	}
}
