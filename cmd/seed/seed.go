package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/carlmjohnson/requests"
)

// demoComment is one scripted viewer comment.
type demoComment struct {
	Author  string
	Content string
}

var demoComments = []demoComment{
	{"視聴者A", "こんにちは！配信お疲れ様です"},
	{"初見さん", "初見です！よろしくお願いします"},
	{"ファン", "今日も楽しい配信をありがとうございます"},
	{"通りすがり", "面白そうですね"},
	{"常連", "いつも見てます！"},
	{"質問者", "これはどうやって作ったんですか？"},
	{"感謝", "ありがとうございます！"},
	{"応援", "頑張ってください！"},
	{"興味深い", "すごい機能ですね"},
	{"配信者", "皆さんコメントありがとうございます！"},
}

type createInstanceRequest struct {
	Name          string  `json:"name"`
	WebhookURL    *string `json:"webhook_url,omitempty"`
	AdminPassword *string `json:"admin_password,omitempty"`
}

type instanceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createCommentRequest struct {
	InstanceID string `json:"instance_id"`
	Author     string `json:"author"`
	Content    string `json:"content"`
}

type commentResponse struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Seeder drives a running server through the public API.
type Seeder struct {
	Out        io.Writer
	API        string
	Frontend   string
	Name       string
	WebhookURL string
	Password   string
	Delay      time.Duration
}

// Run creates the demo instance, prints its frontend links and posts every
// demo comment. A rejected comment is reported and skipped.
func (s *Seeder) Run() error {
	ctx := context.Background()
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintln(out, "Creating demo data...")

	instanceID, err := s.createInstance(ctx)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	fmt.Fprintf(out, "Created instance: %s\n", instanceID)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Try it out:")
	fmt.Fprintf(out, "  Display: %s/display/%s\n", s.Frontend, instanceID)
	fmt.Fprintf(out, "  Comment: %s/comment/%s\n", s.Frontend, instanceID)
	fmt.Fprintf(out, "  Admin:   %s/admin/%s\n", s.Frontend, instanceID)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Posting demo comments...")
	for i, dc := range demoComments {
		comment, err := s.postComment(ctx, instanceID, dc)
		if err != nil {
			fmt.Fprintf(out, "Failed to post comment: %v\n", err)
		} else {
			fmt.Fprintf(out, "Posted: %s - %s\n", comment.Author, comment.Content)
		}

		if i < len(demoComments)-1 && s.Delay > 0 {
			time.Sleep(s.Delay)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Demo data created.")
	return nil
}

func (s *Seeder) createInstance(ctx context.Context) (string, error) {
	body := createInstanceRequest{Name: s.Name}
	if s.WebhookURL != "" {
		body.WebhookURL = &s.WebhookURL
	}
	if s.Password != "" {
		body.AdminPassword = &s.Password
	}

	var inst instanceResponse
	err := requests.URL(s.API).
		Path("/instances/").
		BodyJSON(&body).
		ToJSON(&inst).
		Fetch(ctx)
	if err != nil {
		return "", err
	}
	return inst.ID, nil
}

func (s *Seeder) postComment(ctx context.Context, instanceID string, dc demoComment) (*commentResponse, error) {
	var c commentResponse
	err := requests.URL(s.API).
		Path("/comments/").
		BodyJSON(&createCommentRequest{
			InstanceID: instanceID,
			Author:     dc.Author,
			Content:    dc.Content,
		}).
		ToJSON(&c).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
