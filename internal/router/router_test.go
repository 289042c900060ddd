package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardkeeper/internal/games/lie"
	"boardkeeper/internal/match"
	"boardkeeper/internal/msgsink"
	"boardkeeper/internal/registry"
	"boardkeeper/internal/router"
)

// newTestRouter wires a Router over a fresh registry exactly the way
// cmd/simulator does, minus the results store (Multiple stays 0 throughout,
// so onGameOverLocked never reaches it).
func newTestRouter(t *testing.T) (*router.Router, *registry.Registry[*match.Match]) {
	t.Helper()
	matches := registry.New[*match.Match](nil)
	games := map[string]router.GameModule{
		"lie": {Name: "lie", Build: lie.Build(0)},
	}
	var nextID uint64
	newMatch := func(gameName string, groupID, hostUID uint64) (*match.Match, error) {
		nextID++
		return match.New(match.Config{
			ID:        nextID,
			GameName:  gameName,
			GroupID:   groupID,
			HostUID:   hostUID,
			Build:     games[gameName].Build,
			Tell:      msgsink.TellFunc(func(uint64, string) {}),
			Broadcast: msgsink.BroadcastFunc(func(uint64, string) {}),
			AtMention: msgsink.AtMentionFunc(func(uid uint64) string { return "" }),
		}), nil
	}
	r := router.New(nil, matches, games, newMatch)
	return r, matches
}

// TestFullLieGameThroughRouter drives a complete two-player LIE match
// entirely through the public/private router surface: group setup, then six
// rounds of private number/lie/guess messages, ending in a full hasAll
// tally sweep for the player who stays questioner throughout.
func TestFullLieGameThroughRouter(t *testing.T) {
	const groupID, hostUID, joinerUID = 11, 7, 8

	r, matches := newTestRouter(t)

	require.Contains(t, r.HandlePublicRequest(groupID, hostUID, "#新游戏 lie"), "created match")
	require.Equal(t, "joined", r.HandlePublicRequest(groupID, joinerUID, "#加入"))
	require.Equal(t, "started", r.HandlePublicRequest(groupID, hostUID, "#开始"))

	m, _, ok := matches.GetByGroup(groupID)
	require.True(t, ok)

	for num := 1; num <= 6; num++ {
		digit := string(rune('0' + num))
		require.Empty(t, r.HandlePrivateRequest(hostUID, digit), "round %d: set number", num)
		require.Empty(t, r.HandlePrivateRequest(hostUID, digit), "round %d: claim number", num)
		require.Empty(t, r.HandlePrivateRequest(joinerUID, "相信"), "round %d: believe", num)
	}

	require.Contains(t, m.ShowInfo(), "IS_OVER")
}

// TestNewGameRejectsAHostAlreadyInAMatch covers the registry exclusion
// invariant: a user already bound to one match cannot host a second one,
// even in a different group.
func TestNewGameRejectsAHostAlreadyInAMatch(t *testing.T) {
	const groupA, groupB, hostUID = 11, 22, 7

	r, _ := newTestRouter(t)
	require.Contains(t, r.HandlePublicRequest(groupA, hostUID, "#新游戏 lie"), "created match")

	reply := r.HandlePublicRequest(groupB, hostUID, "#新游戏 lie")
	require.Contains(t, reply, "[error]")
	require.Contains(t, reply, "already in a match")
}

// TestNewGameRejectsASecondMatchInTheSameGroup covers the group-side half
// of the same exclusion invariant.
func TestNewGameRejectsASecondMatchInTheSameGroup(t *testing.T) {
	const groupID, hostA, hostB = 11, 7, 8

	r, _ := newTestRouter(t)
	require.Contains(t, r.HandlePublicRequest(groupID, hostA, "#新游戏 lie"), "created match")

	reply := r.HandlePublicRequest(groupID, hostB, "#新游戏 lie")
	require.Contains(t, reply, "[error]")
	require.Contains(t, reply, "already has a match")
}

// TestLeaveMidMatchUnbindsAndRejectsFurtherRequests covers forcing a
// participant out of a started match through the router's 退出 path: the
// registry binding is released and any further direct request from that
// user is rejected as no longer a participant.
func TestLeaveMidMatchUnbindsAndRejectsFurtherRequests(t *testing.T) {
	const groupID, hostUID, joinerUID = 11, 7, 8

	r, matches := newTestRouter(t)
	require.Contains(t, r.HandlePublicRequest(groupID, hostUID, "#新游戏 lie"), "created match")
	require.Equal(t, "joined", r.HandlePublicRequest(groupID, joinerUID, "#加入"))
	require.Equal(t, "started", r.HandlePublicRequest(groupID, hostUID, "#开始"))

	m, _, ok := matches.GetByGroup(groupID)
	require.True(t, ok)

	require.Equal(t, "left", r.HandlePrivateRequest(joinerUID, "#退出"))
	_, _, stillBound := matches.GetByUser(joinerUID)
	require.False(t, stillBound)

	_, err := m.Request(joinerUID, "1", false)
	require.ErrorIs(t, err, match.ErrNotParticipant)
}
