// Command simulator is a minimal local driver for the match engine: it
// wires one Container, one Router, and the two registered games (lie and
// mahjong) together, then reads lines from stdin as chat messages from a
// single simulated user/group pair.
//
// Input lines:
//
//	#new lie        start a new match in the default group
//	#join           join the group's pending match as a second seat
//	#start          begin the match
//	#info           show match state
//	<anything else> forwarded to the match as a command
//
// A real deployment replaces stdin/stdout with whatever chat-platform
// adapter calls HandlePublicRequest/HandlePrivateRequest.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"boardkeeper/internal/container"
	"boardkeeper/internal/games/lie"
	"boardkeeper/internal/games/mahjong"
	"boardkeeper/internal/match"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/router"
)

const (
	simGroupID = 1
	simUserID  = 1001
)

func main() {
	c, err := container.Init()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init failed:", err)
		os.Exit(1)
	}
	defer c.Release()

	tell := func(userID uint64, text string) {
		fmt.Printf("[to %d] %s\n", userID, text)
	}
	broadcast := func(groupID uint64, text string) {
		fmt.Printf("[group %d] %s\n", groupID, text)
	}
	atMention := func(userID uint64) string {
		return fmt.Sprintf("@%d", userID)
	}

	var nextMatchID uint64
	games := map[string]router.GameModule{
		"lie": {Name: "lie", Build: lie.Build(rand.Intn(2))},
		"mahjong": {Name: "mahjong", Build: mahjong.Build(func(n int, swap func(i, j int)) {
			rand.Shuffle(n, swap)
		})},
	}

	newMatch := func(gameName string, groupID, hostUID uint64) (*match.Match, error) {
		nextMatchID++
		return match.New(match.Config{
			ID:       nextMatchID,
			GameName: gameName,
			GroupID:  groupID,
			HostUID:  hostUID,
			Multiple: 0,
			Build:    games[gameName].Build,
			Tell:     msgsink.TellFunc(tell),
			Broadcast: msgsink.BroadcastFunc(broadcast),
			AtMention: msgsink.AtMentionFunc(atMention),
			Results:  c.Store,
			Log:      c.Log,
		}), nil
	}

	r := router.New(c.Log, c.Matches, games, newMatch)

	fmt.Println("boardkeeper simulator. try: #new lie")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		reply := r.HandlePublicRequest(simGroupID, simUserID, line)
		if reply != "" {
			fmt.Println(reply)
		}
	}
}
