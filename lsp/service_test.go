package lsp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/slotgrid/job"
	"github.com/teranos/slotgrid/rules"
)

func testJob() *job.Configuration {
	return &job.Configuration{
		PipelineCount: 2,
		PhaseCount:    3,
		RoundCount:    2,
		ResourceCount: 4,
		GroupCount:    1,
		Groups:        [][]int{{1, 2}},
	}
}

func TestAnalyze_Diagnostics(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		text        string
		wantTokens  int
		wantMessage string
		wantSuggest bool
	}{
		{name: "valid", text: "RESOURCE_1 = PHASE_2\nGROUP_1 != ROUND_1", wantTokens: 6},
		{name: "empty", text: "", wantTokens: 0},
		{name: "lex error", text: "RESOURCE_1 = @", wantTokens: 2, wantMessage: "illegal character"},
		{name: "missing operator", text: "RESOURCE_1 PHASE_2", wantTokens: 2, wantMessage: "expected operator, found PHASE_ID \"PHASE_2\"", wantSuggest: true},
		{name: "structural on the left", text: "PHASE_1 = RESOURCE_1", wantTokens: 3, wantMessage: "expected RESOURCE_ID or GROUP_ID", wantSuggest: true},
		{name: "unfinished", text: "RESOURCE_1 >", wantTokens: 2, wantMessage: "found end of input", wantSuggest: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewService(nil).Analyze(ctx, tt.text)
			require.NoError(t, err)
			assert.Len(t, a.Tokens, tt.wantTokens)

			if tt.wantMessage == "" {
				assert.Empty(t, a.Diagnostics)
				return
			}
			require.Len(t, a.Diagnostics, 1)
			d := a.Diagnostics[0]
			assert.Equal(t, SeverityError, d.Severity)
			assert.Contains(t, d.Message, tt.wantMessage)
			if tt.wantSuggest {
				assert.NotEmpty(t, d.Suggestions)
			}
		})
	}
}

func TestAnalyze_LexErrorRange(t *testing.T) {
	a, err := NewService(nil).Analyze(context.Background(), "RESOURCE_1 = 3\nRESOURCE_2 $ 1")
	require.NoError(t, err)
	require.Len(t, a.Diagnostics, 1)

	r := a.Diagnostics[0].Range
	assert.Equal(t, 2, r.Start.Line)
	assert.Equal(t, 11, r.Start.Character)
	assert.Equal(t, 12, r.End.Character)
}

func TestAnalyze_References(t *testing.T) {
	a, err := NewService(testJob()).Analyze(context.Background(),
		"RESOURCE_5 = 1 GROUP_2 = PHASE_1 RESOURCE_1 = PIPELINE_3 RESOURCE_2 != RESOURCE_4")
	require.NoError(t, err)
	require.Len(t, a.Comparisons, 4)
	require.Len(t, a.Diagnostics, 3)

	assert.Equal(t, SeverityError, a.Diagnostics[0].Severity)
	assert.Equal(t, "RESOURCE_5 out of range, resource count is 4", a.Diagnostics[0].Message)
	assert.Equal(t, 0, a.Diagnostics[0].Range.Start.Character)
	assert.Equal(t, 10, a.Diagnostics[0].Range.End.Character)

	assert.Equal(t, SeverityError, a.Diagnostics[1].Severity)
	assert.Equal(t, "GROUP_2 out of range, group count is 1", a.Diagnostics[1].Message)

	assert.Equal(t, SeverityWarning, a.Diagnostics[2].Severity)
	assert.Equal(t, "PIPELINE_3 out of range, pipeline count is 2", a.Diagnostics[2].Message)
	assert.Equal(t, "PIPELINE_3", a.Tokens[8].Text)
	assert.Equal(t, a.Tokens[8].Range, a.Diagnostics[2].Range)
}

func TestAnalyze_NoJobSkipsReferences(t *testing.T) {
	a, err := NewService(nil).Analyze(context.Background(), "RESOURCE_500 = ROUND_90")
	require.NoError(t, err)
	assert.Empty(t, a.Diagnostics)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(nil).Analyze(ctx, "RESOURCE_1 = 1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenTypes(t *testing.T) {
	a, err := NewService(nil).Analyze(context.Background(), "GROUP_1 >= 3 RESOURCE_2 < RESOURCE_1 RESOURCE_3 = ROUND_2")
	require.NoError(t, err)

	var got []uint32
	for _, tok := range a.Tokens {
		got = append(got, tok.Type)
	}
	assert.Equal(t, []uint32{
		TokenTypeNamespace, TokenTypeOperator, TokenTypeNumber,
		TokenTypeVariable, TokenTypeOperator, TokenTypeVariable,
		TokenTypeVariable, TokenTypeOperator, TokenTypeProperty,
	}, got)
	assert.Len(t, TokenTypes, 5)
}

func TestEncodeSemanticTokens(t *testing.T) {
	a, err := NewService(nil).Analyze(context.Background(), "RESOURCE_1 = 3\n  GROUP_1 != PHASE_2")
	require.NoError(t, err)

	assert.Equal(t, []uint32{
		0, 0, 10, TokenTypeVariable, 0,
		0, 11, 1, TokenTypeOperator, 0,
		0, 2, 1, TokenTypeNumber, 0,
		1, 2, 7, TokenTypeNamespace, 0,
		0, 8, 2, TokenTypeOperator, 0,
		0, 3, 7, TokenTypeProperty, 0,
	}, EncodeSemanticTokens(a.Tokens))

	assert.Empty(t, EncodeSemanticTokens(nil))
}

func TestHover(t *testing.T) {
	svc := NewService(testJob())
	ctx := context.Background()
	text := "GROUP_1 <= ROUND_2\nRESOURCE_3 = 7"

	tests := []struct {
		name      string
		line, col int
		want      string
	}{
		{name: "group with members", line: 1, col: 2, want: "**GROUP_1** group 1: resources [1 2]"},
		{name: "operator", line: 1, col: 8, want: "**<=** LE"},
		{name: "round", line: 1, col: 14, want: "**ROUND_2** round 2: slots x with (x-1) div (pipelines·phases) = 1"},
		{name: "resource", line: 2, col: 0, want: "**RESOURCE_3** resource 3"},
		{name: "number", line: 2, col: 13, want: "**7** slot 7"},
		{name: "inside operator", line: 1, col: 9, want: "**<=** LE"},
		{name: "beyond text", line: 3, col: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Hover(ctx, text, tt.line, tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplete(t *testing.T) {
	svc := NewService(testJob())
	ctx := context.Background()

	labels := func(items []CompletionItem) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Label
		}
		return out
	}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "start", text: "", want: []string{"RESOURCE_1", "GROUP_1"}},
		{name: "after left operand", text: "RESOURCE_1 ", want: []string{"=", "!=", ">", "<", ">=", "<="}},
		{name: "typing left operand", text: "RESOURCE_1", want: []string{"RESOURCE_1", "GROUP_1"}},
		{name: "partial identifier", text: "RESOURCE_1 = PHA", want: []string{"PHASE_1", "PIPELINE_1", "ROUND_1", "RESOURCE_1", "GROUP_1"}},
		{name: "after operator", text: "GROUP_1 >= ", want: []string{"PHASE_1", "PIPELINE_1", "ROUND_1", "RESOURCE_1", "GROUP_1"}},
		{name: "next rule", text: "GROUP_1 >= 3\n", want: []string{"RESOURCE_1", "GROUP_1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := 1
			col := len([]rune(tt.text))
			for i, r := range []rune(tt.text) {
				if r == '\n' {
					lines++
					col = len([]rune(tt.text)) - i - 1
				}
			}
			items, err := svc.Complete(ctx, tt.text, lines, col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, labels(items))
		})
	}
}

func TestComplete_DetailsCarryBounds(t *testing.T) {
	items, err := NewService(testJob()).Complete(context.Background(), "", 1, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "resource 1..4", items[0].Detail)
	assert.Equal(t, "group 1..1", items[1].Detail)

	items, err = NewService(nil).Complete(context.Background(), "", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "resource", items[0].Detail)
}

func TestTextBefore(t *testing.T) {
	text := "ab\ncdé\nf"
	assert.Equal(t, "a", textBefore(text, 1, 1))
	assert.Equal(t, "ab\ncdé", textBefore(text, 2, 3))
	assert.Equal(t, "ab\ncdé\n", textBefore(text, 2, 99))
	assert.Equal(t, text, textBefore(text, 9, 0))
}

func TestHandler_Diagnostics(t *testing.T) {
	h := NewHandler(context.Background(), NewService(testJob()), zaptest.NewLogger(t).Sugar())

	got, err := h.Diagnostics("RESOURCE_1 = ROUND_5\nRESOURCE_1 =")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *got[0].Severity)
	assert.EqualValues(t, 1, got[0].Range.Start.Line)

	got, err = h.Diagnostics("RESOURCE_1 = ROUND_5")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *got[0].Severity)
	assert.EqualValues(t, 0, got[0].Range.Start.Line)
	assert.EqualValues(t, 13, got[0].Range.Start.Character)
	assert.EqualValues(t, 20, got[0].Range.End.Character)
}

func TestHandler_Documents(t *testing.T) {
	h := NewHandler(context.Background(), NewService(nil), zaptest.NewLogger(t).Sugar())
	uri := protocol.DocumentUri("file:///rules.sg")

	require.NoError(t, h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: "RESOURCE_1 = 1"},
	}))
	assert.Equal(t, "RESOURCE_1 = 1", h.document(uri))

	require.NoError(t, h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "GROUP_1 = 2"}},
	}))
	assert.Equal(t, "GROUP_1 = 2", h.document(uri))

	tokens, err := h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	assert.Len(t, tokens.Data, 15)

	hover, err := h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 0},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)

	require.NoError(t, h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	assert.Empty(t, h.document(uri))
}

func TestHandler_DocumentLimit(t *testing.T) {
	h := NewHandler(context.Background(), NewService(nil), zaptest.NewLogger(t).Sugar())
	for i := 0; i < maxDocuments; i++ {
		h.documents[string(rune('a'+i%26))+string(rune('0'+i/26))] = ""
	}
	err := h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///one-too-many", Text: ""},
	})
	assert.Error(t, err)
}

func TestOperatorItemsMatchOperators(t *testing.T) {
	items := operatorItems()
	require.Len(t, items, len(rules.Operators))
	for i, op := range rules.Operators {
		assert.Equal(t, op.Name(), items[i].Detail)
	}
}
