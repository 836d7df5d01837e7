package main

import (
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Fetch and print every post",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.client.FetchPosts(cmd.Context()); err != nil {
			return err
		}
		s.client.Wait()
		return s.print(tui.Posts(s.client.State().Posts))
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
}
