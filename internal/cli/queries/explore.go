package queries

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/explore"
	"github.com/julianstephens/daylog/internal/models"
)

// ExploreCmd runs one exploration query. Parameters use the same names as
// the HTTP explore endpoint, for example:
//
//	daylog explore numeric -p question_key=energy -p operator=">=" -p value=8
type ExploreCmd struct {
	Mode   string   `arg:"" enum:"numeric,people,people_count,activity,workout,habit,text_search,rbt,date_pattern,combination,streak" help:"Query mode (${enum})."`
	Params []string `short:"p" name:"param" sep:"none" help:"Query parameter as name=value. Repeatable."`
	From   string   `help:"Earliest date (YYYY-MM-DD)."`
	To     string   `help:"Latest date (YYYY-MM-DD)."`
	JSON   bool     `help:"Print results as JSON."`
}

func (c *ExploreCmd) Run(ctx *cli.Context) error {
	req, err := c.request()
	if err != nil {
		return err
	}

	engine := explore.NewEngine(ctx.Journal, nil)
	results, err := engine.Explore(context.Background(), req)
	if err != nil {
		return err
	}
	return printResults(results, c.JSON)
}

func (c *ExploreCmd) request() (explore.Request, error) {
	v := url.Values{}
	v.Set("type", c.Mode)
	for _, p := range c.Params {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return explore.Request{}, fmt.Errorf("invalid parameter %q, expected name=value", p)
		}
		v.Add(name, value)
	}
	if c.From != "" {
		v.Set("from", c.From)
	}
	if c.To != "" {
		v.Set("to", c.To)
	}
	return explore.ParseParams(v), nil
}

func printResults(results []models.EntryResult, asJSON bool) error {
	if asJSON {
		return cli.WriteJSON(os.Stdout, map[string]any{"entries": results, "count": len(results)})
	}
	fmt.Println(cli.RenderResults(results))
	return nil
}
