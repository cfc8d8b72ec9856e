package pipeline

import (
	"context"
	"fmt"

	"uismith/internal/llm"
)

const generateSystemPrompt = "You are an expert at writing React components.\n" +
	"Your task is to write a new React component for a web app, according to the provided task details.\n" +
	"The React component you write can make use of Tailwind classes for styling.\n" +
	"If you judge it is relevant to do so, you can use library components and icons.\n\n" +
	"You will write the full React component code, which should include all imports." +
	"Your generated code will be directly written to a .tsx React component file and used in production."

const iterateSystemPrompt = "You are an expert at writing React components.\n" +
	"Your task is to write a new update for the provided React component for a web app, according to the provided task details.\n" +
	"The React component you write can make use of Tailwind classes for styling.\n" +
	"If you judge it is relevant to do so, you can use library components and icons.\n\n" +
	"You will write the full React component code, which should include all imports." +
	"Your generated code will be directly written to a .tsx React component file and used in production."

const generateRules = "Important :\n" +
	"- Make sure you import provided components libraries and icons that are provided to you if you use them !\n" +
	"- All inputs should be uncontrolled and *not* rely on local state !\n" +
	"- All inputs should have a name attribute !\n" +
	"- Tailwind classes should be written directly in the elements class tags (or className in case of React). DO NOT WRITE ANY CSS OUTSIDE OF CLASSES. DO NOT USE ANY <style> IN THE CODE ! CLASSES STYLING ONLY !\n" +
	"- Do not use libraries or imports except what is provided in this task; otherwise it would crash the component because not installed. Do not import extra libraries besides what is provided above !\n" +
	"- DO NOT HAVE ANY DYNAMIC DATA OR DATA PROPS ! Components are meant to be working as is without supplying any variable to them when importing them ! Only write a component that render directly with placeholders as data, component not supplied with any dynamic data.\n" +
	"- Only write the code for the component; Do not write extra code to import it! The code will directly be stored in an individual React .tsx file !\n" +
	"- Very important : Your component should be exported as default !\n"

// generateComponent asks the higher-tier model for the full component source.
func (e *Engine) generateComponent(ctx context.Context, in contextualized, complete Completer) (draft, error) {
	task := fmt.Sprintf("- COMPONENT NAME : %s\n\n", in.Decision.Name) +
		"- COMPONENT DESCRIPTION :\n```\n" + in.Prompt + "\n```\n\n" +
		"- additional component suggestions :\n```\n" + in.Decision.Description + "\n```\n\n\n" +
		"Write the full code for the new React web component, which uses Tailwind classes if needed (add tailwind dark: classes too if you can; backgrounds in dark: classes should be black), and optionally, library components and icons, based on the provided design task.\n" +
		"The full code of the new React component that you write will be written directly to a ." + e.cfg.Language + " file inside the React project. Make sure all necessary imports are done, and that your full code is enclosed with ```" + e.cfg.Language + " blocks.\n" +
		"Answer with generated code only. DO NOT ADD ANY EXTRA TEXT DESCRIPTION OR COMMENTS BESIDES THE CODE. Your answer contains code only ! component code only !\n" +
		generateRules +
		"Write the React component code as the creative genius and React component genius you are - with good ui formatting.\n"

	messages := make([]llm.Message, 0, len(in.Blocks)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: generateSystemPrompt})
	messages = append(messages, in.Blocks...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: task})

	out, err := complete.Complete(ctx, llm.Request{Model: e.cfg.GenerateModel, Messages: messages})
	if err != nil {
		return draft{}, err
	}
	if out.Content == "" {
		return draft{}, fmt.Errorf("%w: generation stage returned no content", ErrEmptyModelOutput)
	}
	return draft{Name: in.Decision.Name, Description: in.Decision.Description, Prompt: in.Prompt, Raw: out.Content}, nil
}

// generateIteration is the update flavor: it carries the previous code and
// the desired updates into the prompt.
func (e *Engine) generateIteration(ctx context.Context, in contextualized, complete Completer) (draft, error) {
	if in.Existing == nil {
		return draft{}, inputErrf("iteration generation requires an existing component")
	}
	task := fmt.Sprintf("- COMPONENT NAME : %s\n\n", in.Decision.Name) +
		"- COMPONENT DESCRIPTION :\n```\n" + in.Decision.Description + "\n```\n\n" +
		"- CURRENT COMPONENT CODE :\n\n```" + e.cfg.Language + "\n" + in.Existing.Code + "\n```\n\n" +
		"- DESIRED COMPONENT UPDATES :\n\n```\n" + in.Prompt + "\n```\n\n" +
		"- additional component update suggestions :\n```\n" + in.Decision.Description + "\n```\n\n\n" +
		"Write the full code for the new, updated React web component, which uses Tailwind classes if needed (add tailwind dark: classes too if you can; backgrounds in dark: classes should be black), and optionally, library components and icons, based on the provided design task.\n" +
		"The full code of the new React component that you write will be written directly to a ." + e.cfg.Language + " file inside the React project. Make sure all necessary imports are done, and that your full code is enclosed with ```" + e.cfg.Language + " blocks.\n" +
		"Answer with generated code only. DO NOT ADD ANY EXTRA TEXT DESCRIPTION OR COMMENTS BESIDES THE CODE. Your answer contains code only ! component code only !\n" +
		generateRules +
		"Write the updated version of the React component code as the creative genius and React component genius you are - with good ui formatting.\n"

	messages := make([]llm.Message, 0, len(in.Blocks)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: iterateSystemPrompt})
	messages = append(messages, in.Blocks...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: task})

	out, err := complete.Complete(ctx, llm.Request{Model: e.cfg.GenerateModel, Messages: messages})
	if err != nil {
		return draft{}, err
	}
	if out.Content == "" {
		return draft{}, fmt.Errorf("%w: iteration generation returned no content", ErrEmptyModelOutput)
	}
	return draft{Name: in.Decision.Name, Description: in.Decision.Description, Prompt: in.Prompt, Raw: out.Content}, nil
}
