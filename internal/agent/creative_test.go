package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/austiecodes/curator/internal/types"
)

func newTestCreative(c *fakeCompletion) *Creative {
	gen := NewGenerator(c, types.Model{Provider: "fake", ModelID: "fake-chat"}, 0.7, 0)
	return NewCreative(gen, MustCompileSchemas(), Repairer{})
}

func TestBrainstorm(t *testing.T) {
	c := &fakeCompletion{out: `{"agent_type":"idea_generation","ideas":[
		{"title":"Ranking every Pixar villain","description":"A tier list","hook":"Number one will surprise you","format":"list","why_it_works":"Debate drives comments"},
		{"title":"","description":""}
	]}`}
	res := newTestCreative(c).Brainstorm(context.Background(), "ideas for a movie channel", nil)
	if res.Failed() {
		t.Fatalf("unexpected failure %+v", res.Failure)
	}
	if len(res.Ideas) != 1 || res.Ideas[0].WhyItWorks != "Debate drives comments" {
		t.Fatalf("unexpected ideas %+v", res.Ideas)
	}
	if res.AgentType != types.AgentIdeaGeneration {
		t.Fatalf("unexpected agent type %q", res.AgentType)
	}
}

func TestScriptDerivesDuration(t *testing.T) {
	c := &fakeCompletion{out: "```json\n" + `{"script":{"title":"60s review","hook":"Stop scrolling","scenes":[
		{"visual":"poster","voiceover":"This film...","duration_seconds":10},
		{"visual":"clip","voiceover":"...changed horror","duration_seconds":"15"}
	],"call_to_action":"Follow for more"}}` + "\n```"}
	res := newTestCreative(c).ScriptFor(context.Background(), "script about The Shining", nil)
	if res.Failed() {
		t.Fatalf("unexpected failure %+v", res.Failure)
	}
	if len(res.Script.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(res.Script.Scenes))
	}
	if res.Script.EstimatedDurationSeconds != 25 {
		t.Fatalf("expected derived duration 25, got %v", res.Script.EstimatedDurationSeconds)
	}
}

func TestCaptionsNormalizeHashtags(t *testing.T) {
	c := &fakeCompletion{out: `{"options":[{"caption":"Horror night!","hashtags":["horror","#movies"],"tone":"playful","platform":"tiktok"},{"caption":""}]}`}
	res := newTestCreative(c).CaptionsFor(context.Background(), "caption for a horror clip", nil)
	if len(res.Options) != 1 {
		t.Fatalf("expected 1 option, got %d", len(res.Options))
	}
	tags := res.Options[0].Hashtags
	if len(tags) != 2 || tags[0] != "#horror" || tags[1] != "#movies" {
		t.Fatalf("unexpected hashtags %v", tags)
	}
}

func TestCreativeMissingListsBecomeEmpty(t *testing.T) {
	c := &fakeCompletion{out: `{"agent_type":"caption_optimizer"}`}
	res := newTestCreative(c).CaptionsFor(context.Background(), "caption", nil)
	if res.Failed() || res.Options == nil || len(res.Options) != 0 {
		t.Fatalf("expected an empty, valid result, got %+v", res)
	}
}

func TestCreativeFailures(t *testing.T) {
	parse := newTestCreative(&fakeCompletion{out: "sorry, I can't"}).Brainstorm(context.Background(), "q", nil)
	if parse.Error != "Failed to parse AI response" || parse.Ideas == nil {
		t.Fatalf("unexpected parse fallback %+v", parse)
	}

	transport := newTestCreative(&fakeCompletion{err: errors.New("timeout")}).ScriptFor(context.Background(), "q", nil)
	if !transport.Failed() || transport.Script.Scenes == nil {
		t.Fatalf("unexpected transport fallback %+v", transport)
	}
}

func TestSchemasCompile(t *testing.T) {
	s, err := CompileSchemas()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, a := range []types.AgentType{types.AgentMovieRecommendation, types.AgentIdeaGeneration, types.AgentShortsScript, types.AgentCaptionOptimizer} {
		if _, ok := s.byAgent[a]; !ok {
			t.Errorf("missing schema for %s", a)
		}
	}
	if err := s.Validate(types.AgentUnknown, map[string]any{}); err == nil {
		t.Error("expected an error for an agent without a schema")
	}
}
