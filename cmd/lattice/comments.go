package main

import (
	"errors"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
)

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Fetch and print comments, optionally for one post",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		var postID *int64
		if cmd.Flags().Changed("post") {
			id, _ := cmd.Flags().GetInt64("post")
			postID = &id
		}
		if err := s.client.FetchComments(cmd.Context(), postID); err != nil {
			return err
		}
		s.client.Wait()
		return s.print(tui.Comments(s.client.State().Comments))
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Post a comment and print the comments list",
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, _ := cmd.Flags().GetInt64("post")
		body, _ := cmd.Flags().GetString("body")
		if body == "" {
			return errors.New("--body is required")
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		ctx := cmd.Context()
		if err := s.client.FetchComments(ctx, &postID); err != nil {
			return err
		}
		s.client.Wait()
		if err := s.client.SubmitComment(ctx, domain.CommentDraft{Body: body, PostID: postID}); err != nil {
			return err
		}
		s.client.Wait()

		comments := s.client.State().Comments
		if comments.Failed() {
			return errors.New(comments.Error)
		}
		return s.print(tui.Comments(comments))
	},
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.Flags().Int64("post", 0, "Only comments of this post")

	rootCmd.AddCommand(commentCmd)
	commentCmd.Flags().Int64("post", 0, "Post to comment on")
	commentCmd.Flags().String("body", "", "Comment text")
	_ = commentCmd.MarkFlagRequired("post")
}
