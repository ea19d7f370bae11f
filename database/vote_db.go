package database

import (
	"database/sql"
	"fmt"
)

// RecordVote upserts one voter's choice on a post. A repeat vote by the
// same voter overwrites the previous value. Returns whether this was the
// voter's first vote on the post.
func RecordVote(db *sql.DB, postID int64, userID string, value int) (bool, error) {
	var existing int
	err := db.QueryRow(
		`SELECT COUNT(1) FROM votes WHERE post_id = ? AND user_id = ?`, postID, userID,
	).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("failed to look up vote for post %d: %w", postID, err)
	}

	_, err = db.Exec(`
    INSERT INTO votes (post_id, user_id, vote)
    VALUES (?, ?, ?)
    ON CONFLICT(post_id, user_id) DO UPDATE SET
        vote=excluded.vote,
        updated_at=CURRENT_TIMESTAMP;`, postID, userID, value)
	if err != nil {
		return false, fmt.Errorf("failed to record vote for post %d: %w", postID, err)
	}
	return existing == 0, nil
}

// AggregateVotes recomputes a post's like and dislike totals from the
// stored rows. Summation over the latest vote per voter makes the result
// independent of vote arrival order.
func AggregateVotes(db *sql.DB, postID int64) (likes, dislikes int, err error) {
	rows, err := db.Query(
		`SELECT vote, COUNT(1) FROM votes WHERE post_id = ? GROUP BY vote`, postID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate votes for post %d: %w", postID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var value, count int
		if err := rows.Scan(&value, &count); err != nil {
			return 0, 0, fmt.Errorf("failed to scan vote aggregate: %w", err)
		}
		if value > 0 {
			likes += count
		} else if value < 0 {
			dislikes += count
		}
	}
	return likes, dislikes, rows.Err()
}
