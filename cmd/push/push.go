// push loads batch files and adds them to running trainers, which are
// started by cmd/artm with an empty -disk_path.  Batches are dealt to
// trainers round-robin.
/*
  $GOPATH/bin/push \
    -batches=./testdata/batches \
    -trainers=localhost:6060,localhost:6061
*/
package main

import (
	"flag"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/utils"
	"github.com/godist/artm/srv"
	log "github.com/golang/glog"
	"github.com/wangkuiyi/parallel"
)

func main() {
	flagBatches := flag.String("batches", "./testdata/batches", "Directory of batch files")
	flagTrainers := flag.String("trainers", "localhost:6060", "Comma-separated trainer addresses")
	flagNamenode := flag.String("namenode", "", "HDFS namenode address")
	flagWebHDFS := flag.String("webhdfs", "", "WebHDFS address")
	flagHDFSUser := flag.String("hdfs_user", "", "HDFS user")
	flag.Parse()

	utils.HookupHDFSOrDie(*flagNamenode, *flagWebHDFS, *flagHDFSUser)

	tasks, e := batch.ListAll(*flagBatches)
	if e != nil {
		log.Fatalf("Cannot list batches in %s: %v", *flagBatches, e)
	}

	trainers, e := srv.DialBatchServices(strings.Split(*flagTrainers, ","))
	if e != nil {
		log.Fatalf("Cannot connect to trainers: %v", e)
	}
	defer srv.CloseBatchClients(trainers)

	bar := pb.StartNew(len(tasks))
	if e := parallel.For(0, len(trainers), 1, func(i int) error {
		for j := i; j < len(tasks); j += len(trainers) {
			b, e := batch.Load(tasks[j].FilePath)
			if e != nil {
				return e
			}
			if _, e := trainers[i].AddBatch(b); e != nil {
				return e
			}
			bar.Increment()
		}
		return nil
	}); e != nil {
		log.Fatalf("Failed pushing batches: %v", e)
	}
	bar.Finish()
	log.Infof("Pushed %d batches to %d trainers", len(tasks), len(trainers))
	log.Flush()
}
