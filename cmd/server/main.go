package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"bookfeed/api/grpcserver"
	pb "bookfeed/api/pb"
	"bookfeed/infra/config"
	"bookfeed/infra/feed"
	"bookfeed/infra/kafka"
	"bookfeed/infra/log"
	"bookfeed/infra/metrics"
	"bookfeed/infra/runner"
	"bookfeed/jobs/publisher"
	"bookfeed/service"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg)
	reg := metrics.Init(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var group runner.Group

	// ---------------- Kafka sink ----------------

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SummaryTopic)
		defer producer.Close()
	}

	// ---------------- Exchange pipelines ----------------

	summarizers := make([]*service.Summarizer, 0, len(cfg.Exchanges))
	for _, ex := range cfg.Exchanges {
		svc := service.NewBookService(ex.Name)
		sum := service.NewSummarizer(svc, cfg.Summary.Depth, cfg.SummaryInterval(), logger)
		summarizers = append(summarizers, sum)

		switch ex.Feed {
		case config.FeedKafka:
			src := feed.NewKafkaSource(cfg.Kafka.Brokers, ex.Topic, ex.Group, svc, logger)
			group.Go(ctx, src.Run)
		default:
			src := feed.NewBitstamp(ex.URL, ex.Pair, svc, logger)
			group.Go(ctx, src.Run)
		}
		group.Go(ctx, sum.Run)

		if producer != nil {
			pub := publisher.New(sum, producer, logger)
			group.Go(ctx, pub.Run)
		}
	}

	// ---------------- Admin HTTP ----------------

	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", metrics.Handler(reg))
	adminSrv := &http.Server{Addr: cfg.Server.AdminAddr, Handler: adminMux}
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server exited")
		}
	}()

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Server.GRPCAddr).Msg("listen failed")
	}

	grpcSrv := grpc.NewServer()
	pb.RegisterOrderbookAggregatorServer(grpcSrv, grpcserver.NewServer(summarizers, logger))

	go func() {
		<-ctx.Done()
		grpcSrv.GracefulStop()
		_ = adminSrv.Close()
	}()

	logger.Info().
		Str("grpc", cfg.Server.GRPCAddr).
		Str("admin", cfg.Server.AdminAddr).
		Int("exchanges", len(cfg.Exchanges)).
		Msg("bookfeed running")

	if err := grpcSrv.Serve(lis); err != nil {
		logger.Fatal().Err(err).Msg("gRPC server exited")
	}

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("pipeline error")
	}
}
