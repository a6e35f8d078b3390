package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/parlorchat/parlor-go/models"
)

func TestClient_ListPosts_NormalizesUnionFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/blog/posts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("status") != "published" {
			t.Errorf("status = %q", r.URL.Query().Get("status"))
		}
		// Two posts carrying the backend's divergent category/tags shapes.
		_, _ = w.Write([]byte(`[
			{"id":"p1","title":"One","category":{"name":"News"},"tags":[{"name":"go"},{"name":"release"}]},
			{"id":"p2","title":"Two","category":"Updates","tags":"go, tooling"}
		]`))
	}))

	posts, err := client.ListPosts(context.Background(), models.PostPublished)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("posts = %+v", posts)
	}

	if posts[0].Category != "News" || !reflect.DeepEqual(posts[0].Tags, []string{"go", "release"}) {
		t.Errorf("post 1 = %+v", posts[0])
	}
	if posts[1].Category != "Updates" || !reflect.DeepEqual(posts[1].Tags, []string{"go", "tooling"}) {
		t.Errorf("post 2 = %+v", posts[1])
	}
}

func TestClient_UpdatePost_RequiresID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if _, err := client.UpdatePost(context.Background(), &models.BlogPost{Title: "No ID"}); err == nil {
		t.Error("UpdatePost() without ID accepted")
	}
}

func TestClient_CreatePost(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/blog/posts" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var post models.BlogPost
		_ = json.NewDecoder(r.Body).Decode(&post)
		post.ID = "p-new"
		_ = json.NewEncoder(w).Encode(post)
	}))

	created, err := client.CreatePost(context.Background(), &models.BlogPost{
		Title: "Launch", Category: "News", Status: models.PostDraft,
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if created.ID != "p-new" || created.Title != "Launch" {
		t.Errorf("created = %+v", created)
	}
}
