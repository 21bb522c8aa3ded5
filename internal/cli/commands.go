package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/triples"
	"github.com/spf13/cobra"
)

func (a *app) readTriples(path string) ([]triples.Group, error) {
	if path == "-" {
		return triples.Parse(a.stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open triples: %w", err)
	}
	defer f.Close()
	return triples.Parse(f)
}

func (a *app) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <triples-file|->",
		Short: "Ingest triples and aggregate every subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.readTriples(args[0])
			if err != nil {
				return err
			}
			states, err := a.suite.Entities.IngestAll(cmd.Context(), triples.Flatten(groups))
			if err != nil {
				return err
			}
			return a.output(states, func(w io.Writer) {
				for _, st := range states {
					writeState(w, st)
				}
			})
		},
	}
}

type scoreReport struct {
	Reference string               `json:"reference"`
	Policy    domain.ReviewPolicy  `json:"policy"`
	Scores    []domain.EntityScore `json:"scores"`
}

func (a *app) scoreCmd() *cobra.Command {
	var (
		refName string
		refReal string
	)
	cmd := &cobra.Command{
		Use:   "score <triples-file|->",
		Short: "Ingest triples, then score every subject against a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var ref algebra.SplitComplex
			label := refName
			switch {
			case refReal != "":
				v, err := parseVector(refReal)
				if err != nil {
					return err
				}
				ref = algebra.FromReal(v)
				label = "inline"
			case refName != "":
				r, err := a.suite.References.Get(ctx, refName)
				if err != nil {
					return err
				}
				ref = r.Value
			default:
				return fmt.Errorf("one of --reference or --real is required")
			}

			groups, err := a.readTriples(args[0])
			if err != nil {
				return err
			}
			if _, err := a.suite.Entities.IngestAll(ctx, triples.Flatten(groups)); err != nil {
				return err
			}

			ids := make([]string, len(groups))
			for i, g := range groups {
				ids[i] = g.Subject
			}
			if len(ids) == 0 {
				return fmt.Errorf("no triples to score")
			}
			scores, err := a.suite.Entities.ScoreAll(ctx, ids, ref)
			if err != nil {
				return err
			}

			report := scoreReport{Reference: label, Policy: a.suite.Entities.Policy(), Scores: scores}
			return a.output(report, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "ENTITY\tMATCH\tCONTRADICTION\tASSESSMENT\n")
				for _, s := range scores {
					fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\n", s.EntityID, s.Score.Match, s.Score.Contradiction, s.Assessment)
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&refName, "reference", "", "Name of a stored reference")
	cmd.Flags().StringVar(&refReal, "real", "", "Inline reference real channel, comma separated")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <predicate> <object>",
		Short: "Fold one new fact into an entity's state via the inner product",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.suite.Entities.Update(cmd.Context(), args[0],
				domain.Fact{Predicate: args[1], Object: args[2]})
			if err != nil {
				return err
			}
			return a.output(st, func(w io.Writer) { writeState(w, st) })
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <entity>",
		Short: "List state versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := a.suite.Entities.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return a.output(versions, func(w io.Writer) {
				for i := range versions {
					writeState(w, &versions[i])
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of versions (default 20)")
	return cmd
}

func (a *app) conceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concept",
		Short: "Manage knowledge-base concepts",
	}

	register := &cobra.Command{
		Use:   "register <predicate> <object> <v1,v2,...>",
		Short: "Register or replace a concept's base vector",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVector(args[2])
			if err != nil {
				return err
			}
			c, err := a.suite.Concepts.Register(cmd.Context(), args[0], args[1], v)
			if err != nil {
				return err
			}
			return a.output(c, func(w io.Writer) {
				fmt.Fprintf(w, "%s %v\n", c.Key(), c.Vector)
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered concepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			concepts, err := a.suite.Concepts.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.output(concepts, func(w io.Writer) {
				for _, c := range concepts {
					fmt.Fprintf(w, "%s %v\n", c.Key(), c.Vector)
				}
			})
		},
	}

	cmd.AddCommand(register, list)
	return cmd
}

func (a *app) referenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Manage reference vectors",
	}

	var (
		description string
		concepts    []string
		real        string
	)
	define := &cobra.Command{
		Use:   "define <name>",
		Short: "Define a reference from concept keys or an explicit real vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v algebra.Vector
			if real != "" {
				var err error
				if v, err = parseVector(real); err != nil {
					return err
				}
			}
			ref, err := a.suite.References.Define(cmd.Context(), args[0], description, v, concepts)
			if err != nil {
				return err
			}
			return a.output(ref, func(w io.Writer) {
				fmt.Fprintf(w, "%s %v\n", ref.Name, ref.Value.Real)
			})
		},
	}
	define.Flags().StringVar(&description, "description", "", "Free-text description")
	define.Flags().StringSliceVar(&concepts, "concepts", nil, "Concept keys (predicate:object) summed into the real channel")
	define.Flags().StringVar(&real, "real", "", "Explicit real channel, comma separated")

	list := &cobra.Command{
		Use:   "list",
		Short: "List reference vectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := a.suite.References.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.output(refs, func(w io.Writer) {
				for _, r := range refs {
					fmt.Fprintf(w, "%s %v\n", r.Name, r.Value.Real)
				}
			})
		},
	}

	cmd.AddCommand(define, list)
	return cmd
}

func writeState(w io.Writer, st *domain.EntityState) {
	fmt.Fprintf(w, "%s  version=%s origin=%s facts=%d dim=%d\n  real=%v\n  dual=%v\n",
		st.EntityID, st.VersionID, st.Origin, st.FactCount, st.Dim(), st.Value.Real, st.Value.Dual)
}

func parseVector(s string) (algebra.Vector, error) {
	parts := strings.Split(s, ",")
	v := make(algebra.Vector, len(parts))
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("vector component %d: %w", i, err)
		}
		v[i] = x
	}
	return v, nil
}
