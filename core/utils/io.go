package utils

import (
	"github.com/godist/artm/core/dict"
	"github.com/godist/artm/core/persist"
	"github.com/godist/artm/core/phi"
	log "github.com/golang/glog"
	fs "github.com/wangkuiyi/file"
)

func LoadDictionaryOrDie(filename string) *dict.Dictionary {
	log.Infof("Loading dictionary %s ... ", filename)
	d, e := dict.Load(filename)
	if e != nil {
		log.Fatalf("Failed loading dictionary file %s: %v", filename, e)
	}
	log.Infof("Done loading dictionary %s of %d tokens.", d.Name(), d.Len())
	return d
}

func LoadModelOrDie(filename string) *phi.Dense {
	log.Infof("Loading model %s ...", filename)
	m := new(phi.Dense)
	if e := persist.Load(filename, m); e != nil {
		log.Fatalf("Cannot load model: %v", e)
	}
	log.Infof("Done. %d topics %d tokens.", m.TopicSize(), m.TokenSize())
	return m
}

// SaveModel does nothing if filename is empty.
func SaveModel(model *phi.Dense, filename string) {
	if len(filename) > 0 {
		if e := persist.Save(filename, model); e != nil {
			log.Errorf("Failed saving model: %v", e)
		} else {
			log.Infof("Saved model to %s.", filename)
		}
	}
}

// HookupHDFSOrDie connects to HDFS if namenode or webapi is given, so
// that file names prefixed by /hdfs/ or /webfs/ work.
func HookupHDFSOrDie(namenode, webapi, user string) {
	if len(namenode) == 0 && len(webapi) == 0 {
		return
	}
	if e := fs.HookupHDFS(namenode, webapi, user); e != nil {
		log.Fatalf("Cannot connect to HDFS: %v", e)
	}
}
