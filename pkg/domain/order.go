package domain

import "sort"

// SortPosts orders posts newest first; equal timestamps fall back to the higher ID first.
func SortPosts(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Created.Equal(posts[j].Created) {
			return posts[i].Created.After(posts[j].Created)
		}
		return posts[i].ID > posts[j].ID
	})
}

// SortComments orders comments oldest first; equal timestamps fall back to the lower ID first.
func SortComments(comments []Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.Before(comments[j].Created)
		}
		return comments[i].ID < comments[j].ID
	})
}
