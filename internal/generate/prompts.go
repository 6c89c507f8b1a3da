package generate

import (
	"encoding/json"
	"fmt"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/project"
)

const researchSystem = "You are a technical research analyst specializing in software architecture and technology recommendations."

func researchPrompt(requirements string, brainstorm project.BrainstormData) string {
	return fmt.Sprintf(`You are a technical research analyst. Analyze the following project requirements and brainstorming results to provide comprehensive technical research.

Project Requirements:
%s

Brainstorming Results:
%s

Please provide a detailed technical research report covering:
1. Technology stack recommendations
2. Architecture considerations
3. Implementation complexity analysis
4. Key technical risks and mitigation strategies
5. Best practices and industry standards
6. Development timeline estimates

Format the response as a well-structured markdown document with clear sections and actionable insights.`, requirements, indentJSON(brainstorm))
}

func prdPrompt(research string, brainstorm project.BrainstormData) string {
	return fmt.Sprintf(`You are a product manager specializing in creating comprehensive Product Requirements Documents (PRDs). Based on the technical research and brainstorming results, create a detailed PRD.

Technical Research:
%s

Brainstorming Results:
%s

Create a comprehensive PRD that includes:

1. Executive Summary
2. Product Overview & Vision
3. Target Users & Use Cases
4. Functional Requirements (detailed features)
5. Non-Functional Requirements
6. Technical Requirements
7. Success Metrics & KPIs
8. Timeline & Milestones
9. Risk Assessment
10. Future Roadmap Considerations

Format as a professional markdown document with clear sections, bullet points, and actionable specifications that a development team can use to build the product.`, research, indentJSON(brainstorm))
}

func epicsPrompt(prd string) string {
	return fmt.Sprintf(`You are an agile development expert specializing in breaking down PRDs into actionable development epics and tickets. Transform this PRD into a comprehensive development plan.

Product Requirements Document:
%s

Create a detailed development plan that includes:

1. **Epic Breakdown**: 4-6 main development epics with clear goals
2. **Detailed Tickets**: For each epic, provide 3-5 specific, actionable tickets
3. **Acceptance Criteria**: Clear, testable criteria for each ticket
4. **Time Estimates**: Realistic estimates in days for each ticket
5. **Dependencies**: Identify ticket dependencies and suggested order
6. **Priority Levels**: Mark tickets as High/Medium/Low priority
7. **Technical Notes**: Implementation hints and considerations

Format as markdown with:
- Clear epic sections
- Numbered tickets under each epic
- Acceptance criteria in bullet points
- Time estimates and priority clearly marked
- A summary table at the end with totals

Focus on making this immediately actionable for a development team to start implementation.`, prd)
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
