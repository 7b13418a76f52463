package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/devflow/internal/importer"
	"github.com/starford/devflow/internal/insights"
	"github.com/starford/devflow/internal/models"
	"github.com/starford/devflow/internal/storage"
	"github.com/starford/devflow/internal/store"
	"github.com/starford/devflow/internal/testutil"
)

var refNow = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

type generatorFunc func(ctx context.Context, payload string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, payload string) (string, error) {
	return f(ctx, payload)
}

func testServer(t *testing.T, opts ...insights.Option) (*Server, *store.DB, *storage.FS) {
	t.Helper()

	db := testutil.TestDB(t)
	_, files := testutil.TestImportRoot(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts = append([]insights.Option{insights.WithClock(func() time.Time { return refNow }), insights.WithLogger(logger)}, opts...)
	srv := New(Deps{
		Insights: insights.NewService(db, opts...),
		UserID:   "local",
		Files:    files,
		Sync: func(ctx context.Context) error {
			return importer.Sync(ctx, db, files, logger, nil)
		},
	})
	return srv, db, files
}

func seed(t *testing.T, db *store.DB) {
	t.Helper()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }
	_ = db.UpsertProject(ctx, models.Project{ID: "p1", Title: "DevFlow", Status: models.StatusInProgress, Progress: 50,
		TechStack: []string{"Go"}, Links: []models.ProjectLink{}, CreatedAt: day(1), UpdatedAt: day(3)})
	_ = db.UpsertNote(ctx, models.Note{ID: "n1", Title: "Kickoff", CreatedAt: day(2), UpdatedAt: day(2)})
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_activity_overview":
		result, err = srv.getOverview(ctx, req)
	case "get_activity_timeline":
		result, err = srv.getTimeline(ctx, req)
	case "get_tech_ranking":
		result, err = srv.getTechRanking(ctx, req)
	case "get_weekly_payload":
		result, err = srv.getWeeklyPayload(ctx, req)
	case "get_weekly_digest":
		result, err = srv.getWeeklyDigest(ctx, req)
	case "generate_weekly_digest":
		result, err = srv.generateWeeklyDigest(ctx, req)
	case "get_bundle_contract":
		result, err = srv.getBundleContract(ctx, req)
	case "import_bundle":
		result, err = srv.importBundle(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolsRegistered(t *testing.T) {
	srv, _, _ := testServer(t)
	resp := srv.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"get_activity_overview", "get_activity_timeline", "get_tech_ranking",
		"get_weekly_payload", "get_weekly_digest", "generate_weekly_digest",
		"get_bundle_contract", "import_bundle",
	} {
		if !strings.Contains(string(raw), `"name":"`+name+`"`) {
			t.Errorf("tool %s not listed: %s", name, raw)
		}
	}
}

func TestOverviewTool(t *testing.T) {
	srv, db, _ := testServer(t)
	seed(t, db)

	r := callTool(t, srv, "get_activity_overview", map[string]any{"days": 7})
	var ov struct {
		CurrentStreak int               `json:"current_streak"`
		Timeline      []json.RawMessage `json:"timeline"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &ov); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if ov.CurrentStreak != 3 || len(ov.Timeline) != 7 {
		t.Errorf("overview = %+v", ov)
	}

	r = callTool(t, srv, "get_activity_timeline", map[string]any{"days": -1})
	if !r.IsError {
		t.Error("expected error for negative days")
	}
}

func TestTechRankingTool(t *testing.T) {
	srv, db, _ := testServer(t)
	seed(t, db)

	r := callTool(t, srv, "get_tech_ranking", nil)
	if !strings.Contains(resultText(r), `"name": "Go"`) {
		t.Errorf("ranking = %s", resultText(r))
	}
}

func TestWeeklyPayloadTool(t *testing.T) {
	srv, db, _ := testServer(t)
	seed(t, db)

	text := resultText(callTool(t, srv, "get_weekly_payload", nil))
	if !strings.HasPrefix(text, "Week: Jan 1, 2024 – Jan 7, 2024") {
		t.Errorf("payload = %q", text)
	}
	if !strings.Contains(text, "- Kickoff") || !strings.Contains(text, "No snippet activity this week.") {
		t.Errorf("payload = %q", text)
	}
}

func TestDigestTools(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, payload string) (string, error) {
		return "Good momentum on DevFlow.", nil
	})
	srv, db, _ := testServer(t, insights.WithGenerator(gen))
	seed(t, db)

	if text := resultText(callTool(t, srv, "get_weekly_digest", nil)); !strings.Contains(text, "no digest") {
		t.Errorf("before generation = %q", text)
	}
	r := callTool(t, srv, "generate_weekly_digest", nil)
	if r.IsError || !strings.Contains(resultText(r), "Good momentum") {
		t.Fatalf("generate = %q", resultText(r))
	}
	if text := resultText(callTool(t, srv, "get_weekly_digest", nil)); !strings.Contains(text, "Jan 1, 2024 – Jan 7, 2024") {
		t.Errorf("stored digest = %q", text)
	}
}

func TestGenerateDigestToolErrors(t *testing.T) {
	srv, _, _ := testServer(t)
	if r := callTool(t, srv, "generate_weekly_digest", nil); !r.IsError {
		t.Error("expected error when digest is disabled")
	}

	failing := generatorFunc(func(context.Context, string) (string, error) { return "", errors.New("boom") })
	srv, _, _ = testServer(t, insights.WithGenerator(failing))
	if r := callTool(t, srv, "generate_weekly_digest", nil); !r.IsError || !strings.Contains(resultText(r), "boom") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestBundleContract(t *testing.T) {
	srv, _, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_bundle_contract", nil))
	if !strings.Contains(text, "techStack") {
		t.Error("contract should document camelCase keys")
	}

	contents, err := srv.readBundleFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != BundleFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}

const inlineBundle = "notes:\n  - id: n7\n    title: From MCP\n    createdAt: 2024-01-03T08:00:00Z\n"

func TestImportBundle_Content(t *testing.T) {
	srv, db, files := testServer(t)

	r := callTool(t, srv, "import_bundle", map[string]any{"content": inlineBundle, "filename": "mcp.yaml"})
	if r.IsError {
		t.Fatalf("import = %q", resultText(r))
	}
	var res importResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.SavedPath != "mcp.yaml" || res.Records != 1 {
		t.Errorf("result = %+v", res)
	}
	if _, err := files.Read("mcp.yaml"); err != nil {
		t.Errorf("bundle not written: %v", err)
	}
	n, err := db.GetNote(context.Background(), "n7")
	if err != nil || n.Source != "mcp.yaml" {
		t.Errorf("note = %+v, %v", n, err)
	}

	if r := callTool(t, srv, "import_bundle", map[string]any{"content": inlineBundle, "filename": "mcp.yaml"}); !r.IsError {
		t.Error("expected error for existing bundle")
	}
}

func TestImportBundle_DataURI(t *testing.T) {
	srv, db, _ := testServer(t)
	uri := "data:application/yaml;base64," + base64.StdEncoding.EncodeToString([]byte(inlineBundle))

	r := callTool(t, srv, "import_bundle", map[string]any{"url": uri})
	if r.IsError {
		t.Fatalf("import = %q", resultText(r))
	}
	var res importResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if !strings.HasPrefix(res.SavedPath, "import-") || !strings.HasSuffix(res.SavedPath, ".yaml") {
		t.Errorf("generated name = %q", res.SavedPath)
	}
	if _, err := db.GetNote(context.Background(), "n7"); err != nil {
		t.Errorf("note not imported: %v", err)
	}
}

func TestImportBundle_Rejects(t *testing.T) {
	srv, _, files := testServer(t)

	for name, args := range map[string]map[string]any{
		"nothing":    {},
		"both":       {"content": inlineBundle, "url": "https://example.com/a.yaml"},
		"extension":  {"content": inlineBundle, "filename": "notes.txt"},
		"invalid":    {"content": "notes:\n  - title: no id\n", "filename": "bad.yaml"},
		"loopback":   {"url": "http://127.0.0.1/a.yaml"},
		"scheme":     {"url": "ftp://example.com/a.yaml"},
		"data plain": {"url": "data:text/yaml,notes: []"},
		"data mime":  {"url": "data:image/png;base64,AAAA"},
	} {
		if r := callTool(t, srv, "import_bundle", args); !r.IsError {
			t.Errorf("%s: expected error, got %q", name, resultText(r))
		}
	}
	infos, _ := files.List("")
	if len(infos) != 0 {
		t.Errorf("rejected imports must not be written: %+v", infos)
	}
}

func TestSanitizeFilename(t *testing.T) {
	for in, want := range map[string]string{
		"week.yaml":        "week.yaml",
		"../../etc/x.yaml": "x.yaml",
		"my week (1).yml":  "my_week__1_.yml",
		".hidden.yaml":     "hidden.yaml",
	} {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
