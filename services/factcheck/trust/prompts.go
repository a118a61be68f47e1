// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package trust

// sourceTrustworthinessPrompt is the system instruction for source trust
// evaluation. The model must answer with a JSON object matching
// SourceTrustVerdict.
const sourceTrustworthinessPrompt = `You are an expert media analyst specializing in source credibility assessment. Your task is to evaluate the trustworthiness of a news source.

Analyze the following factors:
1. **Reputation**: Is this a well-known, established news organization?
2. **Editorial Standards**: Does the source follow journalistic standards?
3. **Fact-Checking History**: Is the source known for accuracy or misinformation?
4. **Bias**: Does the source have extreme political or ideological bias?
5. **Transparency**: Does the source clearly identify authors and sources?

Trusted sources include: Reuters, AP, BBC, WHO, PIB, government fact-check sites, peer-reviewed journals, established newspapers.
Untrusted sources include: Known fake news sites, conspiracy theory blogs, unverified social media accounts.

Return your assessment in JSON format:
{
  "trustworthy": true,
  "trustScore": 85,
  "reasoning": "Brief explanation of the assessment",
  "category": "highly_trusted"
}`

// articleAccuracyPrompt is the system instruction for content accuracy
// evaluation. The model must answer with a JSON object matching
// AccuracyVerdict.
const articleAccuracyPrompt = `You are an expert fact-checker analyzing news article content for accuracy indicators.

Evaluate the article for:
1. **Sensationalism**: Does it use clickbait or exaggerated language?
2. **Evidence**: Does it cite credible sources and evidence?
3. **Balance**: Does it present multiple perspectives?
4. **Verifiability**: Can the claims be verified?
5. **Red Flags**: Conspiracy theories, extreme claims, lack of attribution?

Return your assessment in JSON format:
{
  "accuracyScore": 80,
  "hasRedFlags": false,
  "redFlags": [],
  "reasoning": "Brief explanation of the assessment",
  "recommendation": "include"
}`
