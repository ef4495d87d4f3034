// Package console drives an intake wizard from a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/internal/intake"
	"github.com/chillerops/backend/internal/service"
	"github.com/chillerops/backend/pkg/utils"
)

const help = `commands:
  show                  print the current step
  set <field> <value>   update a field, e.g. set operational_metrics.kW_Tot 950
  next                  go to the next step
  back                  go to the previous step
  toggle <CHn>          flip a chiller unit
  submit                send the record for prediction (last step only)
  quit                  discard the session and exit
`

// Console runs one intake session against the services.
type Console struct {
	intake  *service.IntakeService
	results *service.ResultsService
	in      io.Reader
	out     io.Writer
}

// New creates a console reading commands from in and writing to out.
func New(intakeSvc *service.IntakeService, resultsSvc *service.ResultsService, in io.Reader, out io.Writer) *Console {
	return &Console{intake: intakeSvc, results: resultsSvc, in: in, out: out}
}

// Run opens a session and processes commands until submit succeeds, quit is
// entered or input ends.
func (c *Console) Run(ctx context.Context, prefill bool) error {
	id, state := c.intake.Start(prefill)
	defer c.intake.Discard(id)

	fmt.Fprint(c.out, help)
	c.printState(state)

	sc := bufio.NewScanner(c.in)
	for {
		fmt.Fprintf(c.out, "[%d/%d] > ", state.Step+1, state.StepCount)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return eris.Wrap(err, "console: read command")
			}
			fmt.Fprintln(c.out)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, args := parse(sc.Text())
		var err error
		switch cmd {
		case "":
			continue
		case "help", "?":
			fmt.Fprint(c.out, help)
			continue
		case "show":
			state, err = c.intake.State(id)
		case "set":
			state, err = c.set(id, args)
		case "next":
			state, err = c.intake.Advance(id)
		case "back":
			state, err = c.intake.Retreat(id)
		case "toggle":
			if len(args) != 1 {
				fmt.Fprintln(c.out, "usage: toggle <CHn>")
				continue
			}
			state, err = c.intake.Toggle(id, strings.ToUpper(args[0]))
		case "submit":
			done, serr := c.submit(ctx, id)
			if done {
				return nil
			}
			err = serr
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(c.out, "unknown command %q, type help\n", cmd)
			continue
		}

		if err != nil {
			c.printError(err)
			if errors.Is(err, service.ErrSessionNotFound) {
				return err
			}
			// keep the prompt in sync even after a refusal
			if st, serr := c.intake.State(id); serr == nil {
				state = st
			}
			continue
		}
		c.printState(state)
	}
}

func parse(line string) (string, []string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

func (c *Console) set(id string, args []string) (intake.State, error) {
	if len(args) < 1 {
		return intake.State{}, eris.New("usage: set <field> <value>")
	}
	value := strings.Join(args[1:], " ")
	return c.intake.Set(id, map[string]string{args[0]: value})
}

// submit reports true once the session has been handed off.
func (c *Console) submit(ctx context.Context, id string) (bool, error) {
	fmt.Fprintln(c.out, "Submitting...")
	res, err := c.intake.Submit(ctx, id)
	if err != nil {
		return false, err
	}

	fmt.Fprintln(c.out, "Predictions received:")
	c.printPredictions(res.Predictions)
	fmt.Fprintf(c.out, "Opening %s\n\n", res.Ticket.Location)

	c.printView(c.results.Render(ctx, res.Ticket.Token))
	return true, nil
}

func (c *Console) printState(st intake.State) {
	fmt.Fprintf(c.out, "\n== Step %d of %d: %s ==\n", st.Step+1, st.StepCount, st.StepName)

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	step := intake.StepAt(st.Step)
	if step.Index == intake.StepChillers {
		for _, unit := range domain.ChillerUnits {
			mark := "off"
			if st.Chillers[unit] == 1 {
				mark = "on"
			}
			fmt.Fprintf(tw, "  %s\t%s\n", unit, mark)
		}
	}
	for _, field := range step.Fields {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", field, fieldValue(st.Record, field), st.Errors[field])
	}
	_ = tw.Flush()

	switch {
	case st.CanSubmit:
		fmt.Fprintln(c.out, "Ready to submit.")
	case st.Step == st.StepCount-1:
		fmt.Fprintln(c.out, "Some earlier fields are invalid; go back to fix them before submitting.")
	}
}

func fieldValue(rec domain.IntakeRecord, field string) string {
	switch field {
	case domain.FieldCity:
		return rec.City
	case domain.FieldDate:
		return rec.Date
	case domain.FieldStartHour:
		return rec.StartHour
	case domain.FieldHotelOccupancy:
		return rec.HotelOccupancy
	}
	return rec.Metrics[strings.TrimPrefix(field, domain.MetricFieldPrefix)]
}

func (c *Console) printError(err error) {
	var (
		verr *intake.ValidationError
		terr *service.TransportError
	)
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(c.out, "Please fix the highlighted fields:")
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(c.out, "  %s: %s\n", name, verr.Fields[name])
		}
	case errors.As(err, &terr):
		fmt.Fprintf(c.out, "Error submitting form: %s\n", terr.Error())
	case errors.Is(err, intake.ErrNotSubmittable):
		fmt.Fprintln(c.out, "Submit is only available on the last step.")
	case errors.Is(err, intake.ErrUnknownField):
		fmt.Fprintln(c.out, "Unknown field, type show to list the fields of this step.")
	case errors.Is(err, intake.ErrUnknownChiller):
		fmt.Fprintln(c.out, "Unknown chiller unit, use CH1 to CH4.")
	default:
		fmt.Fprintln(c.out, err.Error())
	}
}

func (c *Console) printPredictions(p domain.PredictionResult) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%s\n", k, formatValue(p[k]))
	}
	_ = tw.Flush()
}

func (c *Console) printView(v domain.ResultView) {
	if v.State != domain.ViewReady {
		fmt.Fprintln(c.out, v.Message)
		return
	}

	fmt.Fprintf(c.out, "== Prediction Results: %s ==\n", v.City)
	c.printPredictions(v.Predictions)

	fmt.Fprintln(c.out, "\n== Weather ==")
	if v.Weather == nil {
		fmt.Fprintln(c.out, v.WeatherError)
		return
	}
	w := v.Weather
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Temperature\t%s °C\n", utils.FormatNumber(w.Temperature))
	fmt.Fprintf(tw, "  Humidity\t%d %%\n", w.Humidity)
	fmt.Fprintf(tw, "  Wet bulb\t%s °C\n", utils.FormatNumber(w.WetBulb))
	if w.Description != "" {
		fmt.Fprintf(tw, "  Conditions\t%s\n", w.Description)
	}
	if w.IsMock {
		fmt.Fprintf(tw, "  Source\tmock\n")
	}
	_ = tw.Flush()
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return utils.FormatNumber(f)
	}
	return fmt.Sprint(v)
}
