package handlers

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"curator-bot/bot"
	"curator-bot/gateway"
	"curator-bot/utils"
	"curator-bot/voting"
)

// HandleVote handles a click on one of a post's vote buttons.
func HandleVote(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	postID, value, ok := gateway.ParseVoteCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	userID := utils.InteractionUserID(i)
	if userID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	likes, dislikes, action, _, err := b.Voting.RegisterVote(ctx, postID, userID, value)
	if err != nil {
		log.Printf("Error registering vote on post %d: %v", postID, err)
		respondEphemeral(s, i, "Could not record your vote, try again later.")
		return
	}

	if i.Message != nil {
		err := b.Gateway.EditVoteDisplay(ctx, i.ChannelID, i.Message.ID, postID, likes, dislikes)
		if err != nil {
			log.Printf("Cannot update vote display for post %d: %v", postID, err)
		}
	}
	respondEphemeral(s, i, voting.VoteAck(action))
}
