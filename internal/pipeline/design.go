package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"uismith/internal/llm"
)

const designFunctionName = "design_new_component_api"

// designFunction declares the structured design output. The enum over
// catalog names constrains use_library_components at generation time;
// returned names are still re-validated in decodeDesign because schema
// enforcement by the provider is best-effort, not a safety boundary.
func designFunction(description string, componentNames []string) llm.Function {
	enum := make([]any, 0, len(componentNames))
	for _, n := range componentNames {
		enum = append(enum, n)
	}
	return llm.Function{
		Name:        designFunctionName,
		Description: description,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"new_component_name": map[string]any{
					"type":        "string",
					"description": "the name of the new component",
				},
				"new_component_description": map[string]any{
					"type":        "string",
					"description": "Write a description for the component design task based on the user query. Stick strictly to what the user wants in their request - do not go off track",
				},
				"new_component_icons_elements": map[string]any{
					"type":        "object",
					"description": "the icons and elements to use in the new component",
					"properties": map[string]any{
						"does_new_component_need_icons_elements": map[string]any{
							"type":        "boolean",
							"description": "does the new component need icons and elements",
						},
						"if_so_what_new_component_icons_elements_are_needed": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":        "string",
								"description": "the name of the icon element needed",
							},
						},
					},
					"required": []any{"does_new_component_need_icons_elements"},
				},
				"use_library_components": map[string]any{
					"type":        "array",
					"description": "the name of the library components to use",
					"items": map[string]any{
						"type": "string",
						"enum": enum,
					},
				},
			},
			"required": []any{
				"new_component_name",
				"new_component_description",
				"new_component_icons_elements",
				"use_library_components",
			},
		},
	}
}

type designArgs struct {
	NewComponentName        string `json:"new_component_name"`
	NewComponentDescription string `json:"new_component_description"`
	IconsElements           struct {
		Needed bool     `json:"does_new_component_need_icons_elements"`
		Icons  []string `json:"if_so_what_new_component_icons_elements_are_needed"`
	} `json:"new_component_icons_elements"`
	UseLibraryComponents []string `json:"use_library_components"`
}

// decodeDesign applies the null-vs-empty normalization contract and
// re-validates component names against the catalog.
func decodeDesign(in libraryContext, functionCall map[string]any) (designed, error) {
	raw, err := json.Marshal(functionCall)
	if err != nil {
		return designed{}, inputErrf("design arguments not serializable: %v", err)
	}
	var args designArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return designed{}, inputErrf("design arguments malformed: %v", err)
	}
	if strings.TrimSpace(args.NewComponentName) == "" {
		return designed{}, inputErrf("design returned an empty component name")
	}

	decision := DesignDecision{
		Name:        args.NewComponentName,
		Description: args.NewComponentDescription,
	}
	if args.IconsElements.Needed && len(args.IconsElements.Icons) > 0 {
		decision.Icons = args.IconsElements.Icons
	}
	if len(args.UseLibraryComponents) > 0 {
		for _, name := range args.UseLibraryComponents {
			if _, ok := in.Library.Lookup(name); !ok {
				return designed{}, inputErrf("design requested unknown library component %q", name)
			}
		}
		decision.Components = args.UseLibraryComponents
	}
	return designed{libraryContext: in, Decision: decision}, nil
}

func availableComponentsMessage(in libraryContext) llm.Message {
	var sb strings.Builder
	sb.WriteString("Multiple library components can be used while creating a new component in order to help you do a better design job, faster.\n\nAVAILABLE LIBRARY COMPONENTS:\n```\n")
	for _, c := range in.Library.Components {
		sb.WriteString(fmt.Sprintf("%s : %s;\n", c.Name, c.Description))
	}
	sb.WriteString("```")
	return llm.Message{Role: llm.RoleUser, Content: sb.String()}
}

// designComponent asks the lower-tier model for a structured design of a new
// component.
func (e *Engine) designComponent(ctx context.Context, in libraryContext, complete Completer) (designed, error) {
	req := llm.Request{
		Model: e.cfg.DesignModel,
		Functions: []llm.Function{
			designFunction("generate the required design details to create a new component", in.Library.Names()),
		},
		Messages: []llm.Message{
			{
				Role: llm.RoleSystem,
				Content: "Your task is to design a new React component for a web app, according to the user's request.\n" +
					"If you judge it is relevant to do so, you can specify pre-made library components to use in the task.\n" +
					"You can also specify the use of icons if you see that the user's request requires it.",
			},
			availableComponentsMessage(in),
			{
				Role: llm.RoleUser,
				Content: "USER QUERY : \n```\n" + in.Prompt + "\n```\n\n" +
					"Design the new React web component task for the user as the creative genius you are",
			},
		},
	}
	out, err := complete.Complete(ctx, req)
	if err != nil {
		return designed{}, err
	}
	if out.FunctionCall == nil {
		return designed{}, fmt.Errorf("%w: design stage returned no function call", ErrEmptyModelOutput)
	}
	return decodeDesign(in, out.FunctionCall)
}

// designIteration asks for a structured design of updates to the existing
// component.
func (e *Engine) designIteration(ctx context.Context, in libraryContext, complete Completer) (designed, error) {
	if in.Existing == nil {
		return designed{}, inputErrf("iteration design requires an existing component")
	}
	req := llm.Request{
		Model: e.cfg.DesignModel,
		Functions: []llm.Function{
			designFunction("generate the required design details to update the provided component", in.Library.Names()),
		},
		Messages: []llm.Message{
			{
				Role: llm.RoleSystem,
				Content: "Your task is to modify a React component for a web app, according to the user's request.\n" +
					"If you judge it is relevant to do so, you can specify pre-made library components to use in the task.\n" +
					"You can also specify the use of icons if you see that the user's request requires it.",
			},
			availableComponentsMessage(in),
			{
				Role: llm.RoleUser,
				Content: fmt.Sprintf("- Component name : %s\n- Component description : `%s`\n- New component updates query : \n```\n%s\n```\n\n",
					in.Existing.Name, in.Existing.Description, in.Prompt) +
					"Design the React web component updates for the user, as the creative genius you are",
			},
		},
	}
	out, err := complete.Complete(ctx, req)
	if err != nil {
		return designed{}, err
	}
	if out.FunctionCall == nil {
		return designed{}, fmt.Errorf("%w: iteration design returned no function call", ErrEmptyModelOutput)
	}
	return decodeDesign(in, out.FunctionCall)
}
