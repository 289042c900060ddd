package match

// Score multiplier constants from original_source/bot_core/match.cc's
// CalScores_; their defining header wasn't part of the retrieved source
// set, so these values are a documented assumption (see DESIGN.md) rather
// than a literal transcription.
const (
	zeroSumScoreMulti = 3
	topScoreMulti     = 10
)

type scorePair struct {
	userID uint64
	score  int64
}

type scoreInfo struct {
	userID    uint64
	gameScore int64
	zeroSum   int64
	top       int64
}

// calScores computes each participant's zero-sum and top/bottom-tied score
// deltas from their raw game scores, following
// original_source/bot_core/match.cc:CalScores_ exactly (including its
// integer-division rounding, which is why the zero-sum column does not
// always sum to precisely zero).
func calScores(scores []scorePair, multiple uint64) []scoreInfo {
	userNum := int64(len(scores))
	if userNum == 0 {
		return nil
	}

	var sumScore int64
	for _, s := range scores {
		sumScore += s.score
	}
	var absSumScore int64
	for _, s := range scores {
		v := s.score*userNum - sumScore
		if v < 0 {
			v = -v
		}
		absSumScore += v
	}

	type recorder struct {
		score int64
		count int64
		set   bool
	}
	var maxRec, minRec recorder
	for _, s := range scores {
		if !maxRec.set || s.score > maxRec.score {
			maxRec = recorder{score: s.score, count: 1, set: true}
		} else if s.score == maxRec.score {
			maxRec.count++
		}
		if !minRec.set || s.score < minRec.score {
			minRec = recorder{score: s.score, count: 1, set: true}
		} else if s.score == minRec.score {
			minRec.count++
		}
	}
	topScoreFn := func(score int64, rec recorder) int64 {
		if score != rec.score {
			return 0
		}
		return userNum * topScoreMulti / rec.count * int64(multiple)
	}

	ret := make([]scoreInfo, 0, len(scores))
	for _, s := range scores {
		info := scoreInfo{userID: s.userID, gameScore: s.score}
		if absSumScore != 0 {
			info.zeroSum = (s.score*userNum - sumScore) * userNum * zeroSumScoreMulti / absSumScore * int64(multiple)
		}
		info.top += topScoreFn(s.score, maxRec)
		info.top -= topScoreFn(s.score, minRec)
		ret = append(ret, info)
	}
	return ret
}

// competitionRanks assigns each entry in infos a standard-competition rank
// (1224 style: ties share a rank, and the next distinct score skips ahead
// by the number of entries tied above it), by descending game score.
func competitionRanks(infos []scoreInfo) []int {
	ranks := make([]int, len(infos))
	order := make([]int, len(infos))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && infos[order[j]].gameScore > infos[order[j-1]].gameScore; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for i, idx := range order {
		if i > 0 && infos[idx].gameScore == infos[order[i-1]].gameScore {
			ranks[idx] = ranks[order[i-1]]
		} else {
			ranks[idx] = i + 1
		}
	}
	return ranks
}
