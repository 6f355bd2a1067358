// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

// TradingTemplates returns the default template set for a trading agent.
// Each template's placeholder set is what NewGenerator treats as that
// template's required set.
func TradingTemplates() map[string]string {
	return map[string]string{
		"system_prompt": "You are an autonomous trading agent. Your wallet state is:\n{metric_state}\n\nAvailable APIs:\n{apis_str}",

		"strategy_prompt_first": "This is your first cycle. Current environment:\n{cur_environment}\n\nPropose a trading strategy in prose.",

		"strategy_prompt": "Current environment:\n{cur_environment}\n\nPrevious strategy: {prev_strategy}\nPrevious result: {prev_strategy_result}\n\nPropose the next trading strategy in prose, building on what worked and avoiding what failed.",

		"address_research_code_prompt": "Write Python code that resolves the on-chain addresses of the tokens mentioned in this strategy:\n{strategy_output}\n\nPrint a JSON object mapping symbol to address.",

		"trading_code_prompt": "Strategy:\n{strategy_output}\n\nResolved addresses:\n{address_research}\n\nAvailable APIs:\n{apis_str}\n\nInstrument call stubs:\n{instrument_stubs}\n\nAgent id: {agent_id}\nSigner URL: {signer_url}\n\nWrite Python code that executes this strategy against the signer service.",

		"trading_code_non_address_prompt": "Strategy:\n{strategy_output}\n\nAvailable APIs:\n{apis_str}\n\nInstrument call stubs:\n{instrument_stubs}\n\nAgent id: {agent_id}\nSigner URL: {signer_url}\n\nWrite Python code that executes this strategy against the signer service without any address resolution step.",

		"regen_code_prompt": "The previous code failed:\n{prev_code}\n\nErrors encountered:\n{accumulated_errors}\n\nFix the code and print its output.",
	}
}

// MarketingTemplates returns the default template set for a marketing
// agent.
func MarketingTemplates() map[string]string {
	return map[string]string{
		"system_prompt": "You are an autonomous marketing agent. Your account metric state is:\n{metric_state}\n\nAvailable APIs:\n{apis_str}",

		"research_code_prompt_first": "This is your first cycle. Available APIs:\n{apis_str}\n\nWrite Python research code that gathers context about what content has been working for similar accounts.",

		"research_code_prompt": "Recent notifications:\n{notifications_str}\n\nPrevious strategy: {prev_strategy}\nMost similar past strategy: {rag_summary}\nMetric before: {before_metric_state}\nMetric after: {after_metric_state}\n\nWrite Python research code that gathers context for the next strategy.",

		"strategy_prompt": "Recent notifications:\n{notifications_str}\n\nResearch findings:\n{research_output}\n\nMetric: {metric_name}\nTime: {time}\n\nPropose the next marketing strategy in prose.",

		"marketing_code_prompt": "Strategy:\n{strategy_output}\n\nAvailable APIs:\n{apis_str}\n\nWrite Python code that executes this strategy against the social platform API.",

		"regen_code_prompt": "The previous code failed:\n{prev_code}\n\nErrors encountered:\n{accumulated_errors}\n\nFix the code and print its output.",
	}
}
