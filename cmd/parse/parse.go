// parse converts a text corpus into batch files and a dictionary.
// Each line of the corpus is a document of whitespace-separated
// tokens, optionally preceded by a title and a tab.  A token like
// "word|class" belongs to class "class".
/*
  $GOPATH/bin/parse \
    -corpus=./testdata/corpus.gz \
    -output=./testdata/batches \
    -dictionary=./testdata/dictionary.gz
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"path"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/dict"
	"github.com/godist/artm/core/persist"
	"github.com/godist/artm/core/utils"
	log "github.com/golang/glog"
	cmprs "github.com/wangkuiyi/compress_io"
	fs "github.com/wangkuiyi/file"
)

func main() {
	flagCorpus := flag.String("corpus", "./testdata/corpus", "Corpus file")
	flagOutput := flag.String("output", "./testdata/batches", "Directory of batch files")
	flagDictionary := flag.String("dictionary", "", "Dictionary output file")
	flagDictionaryName := flag.String("dictionary_name", "dictionary", "Name of the dictionary")
	flagBatchSize := flag.Int("batch_size", 1000, "Documents per batch")
	flagCompress := flag.Bool("compress", true, "Write gzipped batch files")
	flagNamenode := flag.String("namenode", "", "HDFS namenode address")
	flagWebHDFS := flag.String("webhdfs", "", "WebHDFS address")
	flagHDFSUser := flag.String("hdfs_user", "", "HDFS user")
	flag.Parse()

	utils.HookupHDFSOrDie(*flagNamenode, *flagWebHDFS, *flagHDFSUser)

	if e := fs.Mkdir(*flagOutput); e != nil {
		log.Fatalf("Cannot create %s: %v", *flagOutput, e)
	}
	ext := batch.Ext
	if *flagCompress {
		ext = batch.CompressedExt
	}

	var batches []*batch.Batch
	builder := batch.NewBuilder(*flagBatchSize, func(b *batch.Batch) error {
		if e := batch.Save(b, path.Join(*flagOutput, b.Id+ext)); e != nil {
			return e
		}
		if len(*flagDictionary) > 0 {
			batches = append(batches, b)
		}
		return nil
	})

	docs, e := parse(*flagCorpus, builder)
	if e != nil {
		log.Fatalf("Cannot parse %s: %v", *flagCorpus, e)
	}
	log.Infof("Parsed %d documents into %s", docs, *flagOutput)

	if len(*flagDictionary) > 0 {
		d := dict.Gather(*flagDictionaryName, batches)
		if e := dict.Save(d, *flagDictionary); e != nil {
			log.Fatalf("Cannot save dictionary: %v", e)
		}
		log.Infof("Saved dictionary of %d tokens to %s", d.Len(), *flagDictionary)
	}
	log.Flush()
}

// parse feeds documents in corpus to builder and returns the number
// of documents.  It shows the progress in bytes of corpus read.
func parse(corpus string, builder *batch.Builder) (int, error) {
	info, e := fs.Stat(corpus)
	if e != nil {
		return 0, e
	}
	f, e := fs.Open(corpus)
	if e != nil {
		return 0, e
	}
	bar := pb.Full.Start64(info.Size())
	bar.Set(pb.Bytes, true)
	proxy := bar.NewProxyReader(f)
	defer proxy.Close()

	r := cmprs.NewReader(proxy, nil, persist.Compression(corpus))
	if r == nil {
		return 0, fmt.Errorf("Cannot decompress %s", corpus)
	}

	docs := 0
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for s.Scan() {
		title := fmt.Sprintf("doc%d", docs)
		line := s.Text()
		if i := strings.Index(line, "\t"); i >= 0 {
			title, line = line[:i], line[i+1:]
		}
		if e := builder.Add(title, strings.Fields(line)); e != nil {
			return docs, e
		}
		docs++
	}
	if e := s.Err(); e != nil {
		return docs, e
	}
	return docs, builder.Flush()
}
