package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
	internalgrpc "github.com/mr1hm/quake-explorer/internal/grpc"
)

var (
	watchAddr     string
	watchDistinct bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a running dashboard's snapshots over gRPC",
	Long: `Connect to a running quake-explorer server and print one line per
snapshot it renders, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchAddr, "addr", "localhost:50051", "Dashboard gRPC address")
	watchCmd.Flags().BoolVar(&watchDistinct, "distinct", true, "Skip snapshots identical to the previous one")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(watchAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", watchAddr, err)
	}
	defer conn.Close()

	client := internalgrpc.NewClient(conn)
	out := cmd.OutOrStdout()
	err = client.StreamSnapshots(ctx, &internalgrpc.StreamRequest{DistinctOnly: watchDistinct}, func(s *dashboard.Snapshot) error {
		return printSnapshotLine(out, s)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printSnapshotLine(w io.Writer, s *dashboard.Snapshot) error {
	top := "-"
	if len(s.Top.Items) > 0 {
		top = s.Top.Items[0].Label
	}
	fp := s.Fingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	_, err := fmt.Fprintf(w, "%s years=%d-%d effective=%d brush=%s metric=%s top=%s playing=%t\n",
		fp, s.Filters.Years.Start, s.Filters.Years.End, s.Effective,
		s.Brush.Phase, s.Top.Metric, top, s.Animation.Playing)
	return err
}
