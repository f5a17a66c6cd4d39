package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ButyrinIA/blog/internal/logger"
	"github.com/ButyrinIA/blog/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var errTrailingData = errors.New("unexpected data after JSON body")

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.storage.ListPosts(c.Request.Context())
	if err != nil {
		respondInternalError(c, "failed to list posts", err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) createPost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := bindStrictJSON(c, &req); err != nil {
		respondBadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	post, err := s.storage.CreatePost(ctx, *req.Title, *req.Content)
	if err != nil {
		respondInternalError(c, "failed to create post", err)
		return
	}

	s.metrics.postsCreated.Inc()
	logger.FromContext(ctx).Info("Post created", "id", post.ID, "title", post.Title)
	c.JSON(http.StatusOK, post)
}

// bindStrictJSON требует, чтобы тело было ровно одним JSON-значением,
// и затем проверяет binding-теги.
func bindStrictJSON(c *gin.Context, obj any) error {
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(obj); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return binding.Validator.ValidateStruct(obj)
}
