package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askJSON  bool
	askQuiet bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Retrieves the passages most relevant to the question and asks the
configured LLM to answer using only those passages. If the library does not
contain the answer, the model is instructed to say it does not know.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and sources as JSON")
	askCmd.Flags().BoolVarP(&askQuiet, "quiet", "q", false, "print only the answer")
	rootCmd.AddCommand(askCmd)
}

type answerJSON struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Model    string        `json:"model"`
	Sources  []passageJSON `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	svc, release, err := openService(cmd, NeedGeneration)
	if err != nil {
		return err
	}
	defer release()

	answer, err := svc.Ask(commandContext(cmd), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answerJSON{
			Question: answer.Query,
			Answer:   answer.Text,
			Model:    answer.Model,
			Sources:  toPassages(answer.Sources),
		})
	}

	if askQuiet {
		cmd.Println(answer.Text)
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Answer.Render(answer.Text))
	cmd.Println()
	if len(answer.Sources) > 0 {
		cmd.Println(st.Heading.Render("Sources:"))
		printSources(cmd, st, answer.Sources, false)
	}
	return nil
}
