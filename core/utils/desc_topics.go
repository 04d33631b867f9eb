package utils

import (
	"runtime"
	"sort"

	"github.com/godist/artm/core/phi"
	log "github.com/golang/glog"
	"github.com/wangkuiyi/parallel"
)

// DescribeTopics lists, for each topic, at most maxTokensPerTopic
// tokens of the highest probabilities in pwt.
func DescribeTopics(pwt phi.Matrix, maxTokensPerTopic int) []*TopicDesc {
	log.Infof("Generating topic descriptions ... ")
	descs := make([]*TopicDesc, pwt.TopicSize())
	names := pwt.TopicNames()

	parallel.ForN(0, pwt.TopicSize(), 1, 2*runtime.NumCPU(), func(topic int) {
		ids := make([]int, pwt.TokenSize())
		for w := range ids {
			ids[w] = w
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return pwt.Get(ids[i], topic) > pwt.Get(ids[j], topic)
		})
		if len(ids) > maxTokensPerTopic {
			ids = ids[:maxTokensPerTopic]
		}

		descs[topic] = &TopicDesc{
			Id:     topic,
			Name:   names[topic],
			Tokens: make([]TokenDesc, 0, len(ids))}
		for _, w := range ids {
			descs[topic].Tokens = append(descs[topic].Tokens,
				TokenDesc{pwt.Token(w), pwt.Get(w, topic)})
		}
	})

	log.Infof("Done generating topic descriptions.")
	return descs
}

type TopicDesc struct {
	Id     int
	Name   string
	Tokens []TokenDesc
}

type TokenDesc struct {
	Token phi.Token
	Prob  float64
}
