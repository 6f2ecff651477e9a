package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/easycomment/easycomment-server/internal/domain"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createComment",
		Method:      http.MethodPost,
		Path:        "/comments/",
		Summary:     "Post comment",
		Description: "Appends a comment and pushes it to every connected viewer and admin",
		Tags:        []string{"Comments"},
		Middlewares: s.rateLimited(),
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/comments/{id}/",
		Summary:     "List visible comments",
		Tags:        []string{"Comments"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAdminComments",
		Method:      http.MethodGet,
		Path:        "/admin/comments/{id}/",
		Summary:     "List all comments (admin)",
		Description: "Returns every comment including hidden ones",
		Tags:        []string{"Admin"},
		Security:    basicAuth,
	}, s.handleListAdminComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "hideComment",
		Method:      http.MethodPut,
		Path:        "/comments/{id}/{commentId}/hide",
		Summary:     "Hide comment",
		Tags:        []string{"Comments"},
	}, s.handleHideComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "showComment",
		Method:      http.MethodPut,
		Path:        "/comments/{id}/{commentId}/show",
		Summary:     "Show comment",
		Tags:        []string{"Comments"},
	}, s.handleShowComment)
}

// CommentResponse contains comment data in API responses.
type CommentResponse struct {
	Timestamp  time.Time `json:"timestamp" doc:"Creation time in the server's configured zone"`
	ID         string    `json:"id" doc:"Comment ID"`
	InstanceID string    `json:"instance_id" doc:"Owning instance ID"`
	Author     string    `json:"author" doc:"Author display name"`
	Content    string    `json:"content" doc:"Comment text"`
	Approved   bool      `json:"approved" doc:"Always true; there is no approval queue"`
	Hidden     bool      `json:"hidden" doc:"Whether moderators hid the comment"`
}

func toCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		InstanceID: c.InstanceID,
		Author:     c.Author,
		Content:    c.Content,
		Timestamp:  c.Timestamp,
		Approved:   c.Approved,
		Hidden:     c.Hidden,
	}
}

func toCommentResponses(comments []*domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

// CreateCommentRequest is the request body for posting a comment.
type CreateCommentRequest struct {
	InstanceID string `json:"instance_id" doc:"Target instance ID"`
	Author     string `json:"author" maxLength:"100" doc:"Author display name"`
	Content    string `json:"content" maxLength:"2000" doc:"Comment text"`
}

// CreateCommentInput wraps the create comment request for Huma.
type CreateCommentInput struct {
	Body CreateCommentRequest
}

// CommentOutput wraps a comment for Huma.
type CommentOutput struct {
	Body CommentResponse
}

// ListCommentsOutput wraps a comment list for Huma.
type ListCommentsOutput struct {
	Body []CommentResponse
}

// CommentPathInput identifies one comment of an instance.
type CommentPathInput struct {
	ID        string `path:"id" doc:"Instance ID"`
	CommentID string `path:"commentId" doc:"Comment ID"`
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	comment, err := s.services.Comment.Create(ctx, input.Body.InstanceID, input.Body.Author, input.Body.Content)
	if err != nil {
		return nil, statusError(err)
	}
	return &CommentOutput{Body: toCommentResponse(comment)}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *InstanceIDInput) (*ListCommentsOutput, error) {
	comments, err := s.services.Comment.ListVisible(ctx, input.ID)
	if err != nil {
		return nil, statusError(err)
	}
	return &ListCommentsOutput{Body: toCommentResponses(comments)}, nil
}

func (s *Server) handleListAdminComments(ctx context.Context, input *AdminInput) (*ListCommentsOutput, error) {
	if err := s.authorize(ctx, input); err != nil {
		return nil, statusError(err)
	}

	comments, err := s.services.Comment.ListAll(ctx, input.ID)
	if err != nil {
		return nil, statusError(err)
	}
	return &ListCommentsOutput{Body: toCommentResponses(comments)}, nil
}

func (s *Server) handleHideComment(ctx context.Context, input *CommentPathInput) (*MessageOutput, error) {
	if _, err := s.services.Comment.Hide(ctx, input.ID, input.CommentID); err != nil {
		return nil, statusError(err)
	}
	return message("Comment hidden"), nil
}

func (s *Server) handleShowComment(ctx context.Context, input *CommentPathInput) (*MessageOutput, error) {
	if _, err := s.services.Comment.Show(ctx, input.ID, input.CommentID); err != nil {
		return nil, statusError(err)
	}
	return message("Comment shown"), nil
}
